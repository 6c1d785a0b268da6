package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/contactsel/internal/session"
)

// multipartOverhead allows for form boundaries and headers on top of the
// file itself.
const multipartOverhead = 1 << 20

// handleUpload reads the file and starts an asynchronous decode. Browsers
// are redirected to the page, which shows the upload as pending until the
// decode finishes; API clients get 202 with the current state.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	logger := requestLogger(r)

	if sess.Pending() {
		respondError(w, r, session.ErrDecodePending, http.StatusConflict)
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		err = fmt.Errorf("parse upload form: %w", err)
		respondError(w, r, err, uploadStatus(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		err := fmt.Errorf("file too large: %d bytes exceeds limit of %d", header.Size, maxSize)
		respondError(w, r, err, http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		err = fmt.Errorf("read upload: %w", err)
		respondError(w, r, err, uploadStatus(err))
		return
	}

	if err := s.store.StartDecode(sess, header.Filename, data); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logger.Info("upload accepted", "file", header.Filename, "bytes", len(data))

	if wantsJSON(r) {
		writeJSONStatus(w, http.StatusAccepted, stateResponse(sess.Snapshot()))
		return
	}
	redirectHome(w, r)
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
