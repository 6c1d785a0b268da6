package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/contactsel/internal/schema"
)

// xlsxContentType is the registered media type for .xlsx workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleState reports the session as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, stateResponse(currentSession(r).Snapshot()))
}

// handleExport downloads the selected contacts as selected_contacts.xlsx.
// With nothing selected it answers 409; the page never offers the button
// in that case.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	logger := requestLogger(r)

	rows, err := sess.State().Export()
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	data, err := s.exporter.Encode(rows)
	if err != nil {
		respondError(w, r, fmt.Errorf("encode export: %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, schema.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		logger.Warn("export write failed", "error", err)
		return
	}

	logger.Info("contacts exported", "rows", len(rows), "bytes", len(data))
}
