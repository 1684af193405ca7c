package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/homeinv/internal/vision"
)

// maxTokens leaves room for a short name plus any preamble the model adds.
const maxTokens = 64

type ClaudeSuggester struct {
	client *anthropic.Client
	model  string
}

func NewClaudeSuggester(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeSuggester {
	return &ClaudeSuggester{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (s *ClaudeSuggester) Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(imageData),
				)),
				anthropic.NewTextMessageContent(vision.SuggestPrompt),
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	name := vision.ParseSuggestion(resp.GetFirstContentText())
	if name == "" {
		return "", vision.ErrNoSuggestion
	}
	return name, nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg; the web layer validates uploads first.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
