package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/homeinv/internal/vision"
)

func TestOllamaSuggest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"model":    got.Model,
			"response": "Name: Garden hose\n",
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	s := NewOllamaSuggester(server.URL, "moondream")

	name, err := s.Suggest(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xE0}), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Garden hose", name)
	assert.Equal(t, "moondream", got.Model)
	assert.False(t, got.Stream)
	assert.Len(t, got.Images, 1)
}

func TestOllamaSuggestEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": ""}`))
	}))
	defer server.Close()

	_, err := NewOllamaSuggester(server.URL, "moondream").Suggest(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.True(t, errors.Is(err, vision.ErrNoSuggestion))
}

func TestOllamaSuggestNetworkError(t *testing.T) {
	s := NewOllamaSuggester("http://localhost:99999", "moondream")

	_, err := s.Suggest(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/jpeg")
	assert.Error(t, err)
}

func TestOllamaSuggestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewOllamaSuggester(server.URL, "moondream").Suggest(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.Error(t, err)
}

func TestOllamaSuggestReadError(t *testing.T) {
	s := NewOllamaSuggester("http://localhost:11434", "moondream")

	_, err := s.Suggest(context.Background(), errReader{}, "image/jpeg")
	assert.Error(t, err)
}

type errReader struct{}

func (errReader) Read(_ []byte) (int, error) { return 0, io.ErrUnexpectedEOF }
