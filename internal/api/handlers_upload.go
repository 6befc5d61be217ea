package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docqa/internal/parser"
	"github.com/dgallion1/docqa/internal/pipeline"
)

const (
	msgNoFile          = "No file provided"
	msgProcessingError = "Error processing file"
	msgNoText          = "No text could be extracted from file"
)

// handleUpload extracts text from the multipart "file" field and returns
// its summary. The summary is produced synchronously; a client disconnect
// cancels the run.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size. Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, msgNoFile, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, msgNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	filename := sanitizeFilename(header.Filename)
	contentType := header.Header.Get("Content-Type")
	log := s.log.With("filename", filename, "content_type", contentType, "bytes", header.Size)

	start := time.Now()
	text, err := parser.Extract(file, contentType, filename, parser.Options{
		FallbackPdftotext: s.cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		log.Error("extraction failed", "error", err)
		jsonError(w, msgProcessingError, http.StatusInternalServerError)
		return
	}

	summary, err := s.summaries.Summarize(r.Context(), text)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyDocument) {
			log.Warn("upload has no text")
			jsonError(w, msgNoText, http.StatusUnprocessableEntity)
			return
		}
		log.Error("summarization failed", "error", err)
		jsonError(w, msgProcessingError, http.StatusInternalServerError)
		return
	}

	log.Info("upload summarized", "duration_ms", time.Since(start).Milliseconds())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"summary": summary})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
