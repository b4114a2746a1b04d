package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/linkboard/internal/core"
)

// multipartSlack covers the multipart framing around the file part.
const multipartSlack = 1 << 20

type uploadResponse struct {
	*core.UploadResult
	Pages  []core.PageItem `json:"pages"`
	Charts core.Charts     `json:"charts"`
}

// handleUpload replaces the session's dataset with the uploaded CSV file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := workspaceID(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("file too large: exceeds %d bytes", maxSize)
		} else {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		s.respondError(w, r, err, 0)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.UploadDataset(ctx, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		UploadResult: result,
		Pages:        core.PageStrip(result.View.Page, result.View.TotalPages),
		Charts:       core.BuildCharts(result.View.Aggregates),
	})
}
