package web

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/vbonduro/homeinv/internal/domain"
	"github.com/vbonduro/homeinv/internal/logging"
	"github.com/vbonduro/homeinv/internal/service"
)

const maxImageSize = 20 * 1024 * 1024 // 20 MB

// maxFormOverhead covers the non-file fields and multipart framing.
const maxFormOverhead = 1 * 1024 * 1024

// allowedImageTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var (
	errImageTooLarge    = errors.New("image too large (max 20 MB)")
	errImageType        = errors.New("unsupported image format")
	errInvalidMultipart = errors.New("failed to parse form")
)

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readImage parses the multipart form and returns the "image" file, or nil
// when none was chosen.
func readImage(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*service.ImageUpload, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+maxFormOverhead)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		// Plain form posts carry no file; ParseForm already ran.
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, http.StatusOK, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errImageTooLarge
		}
		return nil, http.StatusBadRequest, errInvalidMultipart
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, http.StatusOK, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, errInvalidMultipart
	}
	defer closeWithLog(file, "upload file", logger)

	return readUpload(file, header, logger)
}

func readUpload(file multipart.File, header *multipart.FileHeader, logger *slog.Logger) (*service.ImageUpload, int, error) {
	if header.Size > maxImageSize {
		return nil, http.StatusRequestEntityTooLarge, errImageTooLarge
	}
	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("read upload failed", "error", err)
		return nil, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if len(data) == 0 {
		return nil, http.StatusOK, nil
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, http.StatusBadRequest, errImageType
	}
	return &service.ImageUpload{Filename: header.Filename, MimeType: mimeType, Data: data}, http.StatusOK, nil
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	upload, status, err := readImage(w, r, logger)
	if err != nil {
		s.renderInventory(w, r, status, s.failView(err.Error()))
		return
	}

	area, storage, name := r.FormValue("area"), r.FormValue("storage"), r.FormValue("name")
	if msg := checkNameLen("item name", name); msg != "" {
		s.renderInventory(w, r, http.StatusBadRequest, s.failView(msg))
		return
	}

	snap, err := s.service.AddItem(r.Context(), area, storage, name, upload)
	s.respond(w, r, snap, err, "Added item "+strings.TrimSpace(name))
}

// handleSuggestName returns the name input pre-filled with a name suggested
// from the uploaded image.
func (s *Server) handleSuggestName(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	if !s.service.VisionEnabled() {
		http.NotFound(w, r)
		return
	}

	upload, status, err := readImage(w, r, logger)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	if upload == nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}

	name, err := s.service.SuggestName(r.Context(), upload.Data, upload.MimeType)
	if err != nil {
		logger.Error("suggest name failed", "error", err)
		http.Error(w, "no suggestion available", http.StatusBadGateway)
		return
	}

	if err := s.renderPartial(w, http.StatusOK, "name_input", name, "partials/name_input.html"); err != nil {
		logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	key := r.PathValue("key")

	reader, mimeType, err := s.service.OpenImage(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to read image", http.StatusInternalServerError)
		logger.Error("open image failed", "key", key, "error", err)
		return
	}
	defer closeWithLog(reader, "image reader", logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, reader); err != nil {
		logger.Error("write image failed", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
