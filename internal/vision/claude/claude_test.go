package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/homeinv/internal/vision"
)

func newClaudeServer(t *testing.T, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		resp := map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content": []map[string]any{
				{"type": "text", "text": reply},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 3},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClaudeSuggest(t *testing.T) {
	var seen map[string]any
	server := newClaudeServer(t, "Cordless drill.", &seen)

	s := NewClaudeSuggester("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))

	name, err := s.Suggest(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Cordless drill", name)
	assert.Equal(t, "claude-test", seen["model"])
}

func TestClaudeSuggestEmptyReply(t *testing.T) {
	server := newClaudeServer(t, "  ", nil)
	s := NewClaudeSuggester("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))

	_, err := s.Suggest(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/png")
	assert.True(t, errors.Is(err, vision.ErrNoSuggestion))
}

func TestClaudeSuggestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad image"}}`))
	}))
	defer server.Close()

	s := NewClaudeSuggester("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))

	_, err := s.Suggest(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/jpeg")
	assert.Error(t, err)
}

func TestClaudeSuggestReadError(t *testing.T) {
	s := NewClaudeSuggester("sk-test", "claude-test")

	_, err := s.Suggest(context.Background(), &errReader{}, "image/jpeg")
	assert.Error(t, err)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/png", normaliseMIME("image/png"))
	assert.Equal(t, "image/webp", normaliseMIME("image/webp"))
	assert.Equal(t, "image/jpeg", normaliseMIME("image/heic"))
}

// errReader always returns an error on Read.
type errReader struct{}

func (e *errReader) Read(_ []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
