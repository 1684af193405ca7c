package imagestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ImageStore holds the image files attached to items, addressed by key.
type ImageStore interface {
	Save(ctx context.Context, key, mimeType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned by Get and Delete when no image exists for a key.
var ErrNotFound = errors.New("image not found")

var keyPartReplacer = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// MaxKeyLen is the longest key Key returns, in bytes. It stays under the
// 255-byte file name limit of common filesystems.
const MaxKeyLen = 200

// maxExtLen bounds the extension kept on a shortened key.
const maxExtLen = 8

// Key derives the storage key for an item image from its location, its name
// and the uploaded file name. Two items sharing all four parts share a key.
// Keys longer than MaxKeyLen are cut and suffixed with a hash of the full key.
func Key(area, storage, item, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	key := fmt.Sprintf("%s_%s_%s_%s",
		keyPartReplacer.Replace(area),
		keyPartReplacer.Replace(storage),
		keyPartReplacer.Replace(item),
		keyPartReplacer.Replace(base),
	)
	if len(key) <= MaxKeyLen {
		return key
	}
	return shortenKey(key)
}

// shortenKey keeps a readable prefix of key, then a hash of the whole key and
// the original extension.
func shortenKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	suffix := "_" + hex.EncodeToString(sum[:8])
	if ext := path.Ext(key); len(ext) <= maxExtLen {
		suffix += ext
	}

	cut := MaxKeyLen - len(suffix)
	for cut > 0 && !utf8.RuneStart(key[cut]) {
		cut--
	}
	return key[:cut] + suffix
}

// EnsureExt appends the extension for mimeType when the base name of
// filename has none. An empty name becomes "image".
func EnsureExt(filename, mimeType string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "image" + MimeTypeToExt(mimeType)
	}
	if path.Ext(base) != "" {
		return filename
	}
	return filename + MimeTypeToExt(mimeType)
}

func MimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func ExtToMimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
