package core

import (
	"fmt"
	"slices"
)

// State is the selection state of one contact list: every imported contact
// sits in exactly one of two ordered lists, unselected or selected, plus the
// search query that filters the unselected view.
//
// State is a value. Transitions return a new State and never modify the
// receiver or any slice it shares, so a State may be read freely after it
// has been replaced.
type State struct {
	importID   string
	source     string
	total      int
	unselected []Contact
	selected   []Contact
	query      string
}

// ImportAll replaces the contact list with freshly decoded rows. All contacts
// start unselected, in sheet order, and any previous selection is discarded.
// The search query carries over.
func (s State) ImportAll(importID, source string, rows []Row) State {
	contacts := make([]Contact, len(rows))
	for i, row := range rows {
		contacts[i] = Normalize(i, row)
	}
	return State{
		importID:   importID,
		source:     source,
		total:      len(contacts),
		unselected: contacts,
		selected:   nil,
		query:      s.query,
	}
}

// Select moves a contact from unselected to the end of selected.
//
// importID must match the current import, or be empty to mean "whatever is
// loaded". A contact that is not currently unselected is an error and the
// state is returned unchanged.
func (s State) Select(importID string, id int) (State, error) {
	if err := s.checkImport(importID); err != nil {
		return s, err
	}
	i := indexOf(s.unselected, id)
	if i < 0 {
		return s, fmt.Errorf("select %d: %w", id, ErrContactNotFound)
	}
	next := s
	next.selected = appendCopy(s.selected, s.unselected[i])
	next.unselected = removeCopy(s.unselected, i)
	return next, nil
}

// Deselect moves a contact from selected to the end of unselected. The
// contact does not return to its original sheet position.
func (s State) Deselect(importID string, id int) (State, error) {
	if err := s.checkImport(importID); err != nil {
		return s, err
	}
	i := indexOf(s.selected, id)
	if i < 0 {
		return s, fmt.Errorf("deselect %d: %w", id, ErrContactNotFound)
	}
	next := s
	next.unselected = appendCopy(s.unselected, s.selected[i])
	next.selected = removeCopy(s.selected, i)
	return next, nil
}

// SetQuery replaces the search query. The lists are untouched.
func (s State) SetQuery(q string) State {
	s.query = q
	return s
}

// ImportID identifies the current import; empty before the first upload.
func (s State) ImportID() string { return s.importID }

// Source is the file name the contacts were imported from.
func (s State) Source() string { return s.source }

// Query returns the current search query.
func (s State) Query() string { return s.query }

// Total is the number of contacts produced by the last import.
func (s State) Total() int { return s.total }

// Unselected returns a copy of the unselected list.
func (s State) Unselected() []Contact { return slices.Clone(s.unselected) }

// Selected returns a copy of the selected list, in selection order.
func (s State) Selected() []Contact { return slices.Clone(s.selected) }

// SelectedCount returns len(Selected()) without copying.
func (s State) SelectedCount() int { return len(s.selected) }

// Visible returns the unselected contacts matching the current query.
func (s State) Visible() []Contact { return Filter(s.unselected, s.query) }

// HasContacts reports whether either list is non-empty.
func (s State) HasContacts() bool { return len(s.unselected)+len(s.selected) > 0 }

// CanExport reports whether there is anything to export.
func (s State) CanExport() bool { return len(s.selected) > 0 }

// Export projects the selected contacts onto the export schema.
func (s State) Export() ([]ExportRow, error) {
	if !s.CanExport() {
		return nil, ErrNothingSelected
	}
	return Project(s.selected), nil
}

// Verify checks the partition invariant: the two lists together hold every
// imported contact exactly once.
func (s State) Verify() error {
	if n := len(s.unselected) + len(s.selected); n != s.total {
		return fmt.Errorf("partition size %d, imported %d", n, s.total)
	}
	seen := make(map[int]bool, s.total)
	for _, list := range [][]Contact{s.unselected, s.selected} {
		for _, c := range list {
			if c.ID < 0 || c.ID >= s.total {
				return fmt.Errorf("contact id %d out of range [0,%d)", c.ID, s.total)
			}
			if seen[c.ID] {
				return fmt.Errorf("contact id %d appears twice", c.ID)
			}
			seen[c.ID] = true
		}
	}
	return nil
}

func (s State) checkImport(importID string) error {
	if importID != "" && importID != s.importID {
		return ErrStaleImport
	}
	return nil
}

func indexOf(list []Contact, id int) int {
	return slices.IndexFunc(list, func(c Contact) bool { return c.ID == id })
}

// appendCopy returns list+c in a new backing array.
func appendCopy(list []Contact, c Contact) []Contact {
	out := make([]Contact, len(list), len(list)+1)
	copy(out, list)
	return append(out, c)
}

// removeCopy returns list without element i, in a new backing array.
func removeCopy(list []Contact, i int) []Contact {
	out := make([]Contact, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
