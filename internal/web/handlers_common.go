package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/contactsel/internal/core"
	"github.com/JonMunkholm/contactsel/internal/session"
	"github.com/JonMunkholm/contactsel/internal/web/templates"
)

// contactID reads the {id} route parameter. Anything that is not a
// non-negative integer cannot name a contact.
func contactID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: id %q", core.ErrContactNotFound, raw)
	}
	return id, nil
}

// redirectHome sends a browser back to the page after a form post,
// preserving nothing but the path; the query lives in the session.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func pageData(snap session.Snapshot) templates.PageData {
	st := snap.State
	return templates.PageData{
		ImportID:      st.ImportID(),
		Query:         st.Query(),
		Total:         st.Total(),
		SelectedCount: st.SelectedCount(),
		HasContacts:   st.HasContacts(),
		CanExport:     st.CanExport(),
		Pending:       snap.Pending,
		PendingFile:   snap.PendingFile,
		Visible:       items(st.Visible()),
		Selected:      items(st.Selected()),
	}
}

func items(contacts []core.Contact) []templates.ContactItem {
	out := make([]templates.ContactItem, len(contacts))
	for i, c := range contacts {
		out[i] = templates.ContactItem{ID: c.ID, Label: c.Label()}
	}
	return out
}

// ContactJSON is a contact as the API reports it, with fallbacks applied.
type ContactJSON struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Phone1 string `json:"phone1"`
	Phone2 string `json:"phone2"`
}

// StateResponse is the body of GET /api/state and of every API mutation.
type StateResponse struct {
	ImportID        string         `json:"import_id"`
	Source          string         `json:"source,omitempty"`
	Query           string         `json:"query"`
	Total           int            `json:"total"`
	UnselectedCount int            `json:"unselected_count"`
	SelectedCount   int            `json:"selected_count"`
	CanExport       bool           `json:"can_export"`
	Pending         bool           `json:"pending"`
	PendingFile     string         `json:"pending_file,omitempty"`
	LastError       *ErrorResponse `json:"last_error,omitempty"`

	// Unselected is filtered by Query; Selected never is.
	Unselected []ContactJSON `json:"unselected"`
	Selected   []ContactJSON `json:"selected"`
}

func stateResponse(snap session.Snapshot) StateResponse {
	st := snap.State
	return StateResponse{
		ImportID:        st.ImportID(),
		Source:          st.Source(),
		Query:           st.Query(),
		Total:           st.Total(),
		UnselectedCount: st.Total() - st.SelectedCount(),
		SelectedCount:   st.SelectedCount(),
		CanExport:       st.CanExport(),
		Pending:         snap.Pending,
		PendingFile:     snap.PendingFile,
		LastError:       newErrorResponse(snap.LastError),
		Unselected:      contactsJSON(st.Visible()),
		Selected:        contactsJSON(st.Selected()),
	}
}

func contactsJSON(contacts []core.Contact) []ContactJSON {
	out := make([]ContactJSON, len(contacts))
	for i, c := range contacts {
		out[i] = ContactJSON{
			ID:     c.ID,
			Name:   c.DisplayName(),
			Phone1: c.Phone1(),
			Phone2: c.Phone2(),
		}
	}
	return out
}
