// Package vision suggests an item name from a photo. It backs the optional
// "suggest" button on the add-item form; the user still submits the item.
package vision

import (
	"context"
	"errors"
	"io"
)

// SuggestPrompt is the shared prompt used by all vision adapters.
const SuggestPrompt = `Name the single main household object in this photo.
Reply with a short name of at most five words and nothing else.`

// ErrNoSuggestion is returned when the model reply contains no usable name.
var ErrNoSuggestion = errors.New("no name suggested")

type Suggester interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error)
}
