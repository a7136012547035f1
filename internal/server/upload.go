package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// Runner is the pipeline surface the upload handler depends on.
type Runner interface {
	Run(ctx context.Context, doc entity.Document) (*pipeline.Result, error)
}

// handleUpload admits a multipart document and runs the extraction pipeline.
// Admission failures are the caller's fault: 400 for a missing file, 415 for
// a disallowed extension or MIME type, 413 for oversized content. Pipeline
// failures come back as 500 with the failing stage.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes+1)
	if err := r.ParseMultipartForm(constants.MaxUploadBytes + 1); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, "request body must be multipart/form-data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided in request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if !constants.IsAllowedExtension(ext) {
		writeError(w, http.StatusUnsupportedMediaType,
			"Unsupported file type. Allowed types: "+allowedExtensionList())
		return
	}

	if ct := header.Header.Get("Content-Type"); ct != "" && !constants.IsAllowedMIMEType(ct) {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported MIME type: "+ct)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(content) > constants.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage())
		return
	}

	result, err := s.pipeline.Run(r.Context(), entity.Document{
		Filename: header.Filename,
		Content:  content,
	})
	if err != nil {
		stage := ""
		var se *pipeline.StageError
		if errors.As(err, &se) {
			stage = string(se.Stage)
		}
		s.logger.Error("upload.pipeline.failed", "filename", header.Filename, "stage", stage, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "Error processing document: " + err.Error(),
			Stage: stage,
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func allowedExtensionList() string {
	exts := make([]string, 0, len(constants.AllowedExtensions))
	for ext := range constants.AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

func tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size: %dMB", constants.MaxUploadBytes/1024/1024)
}
