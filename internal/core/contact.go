package core

import (
	"strings"

	"github.com/JonMunkholm/contactsel/internal/schema"
)

// Row is one decoded data row, keyed by column header.
// Empty cells are absent from the map.
type Row map[string]string

// Get returns the value for a column, or "" when the column is absent.
func (r Row) Get(col string) string {
	if r == nil {
		return ""
	}
	return r[col]
}

// Contact is a Row with its derived display name and the identifier it was
// assigned at import time. Contacts are never mutated after import.
type Contact struct {
	ID     int    // Position in the imported sheet (0-based), unique per import
	Name   string // Derived name; may be empty
	Fields Row
}

// Normalize derives the contact name for a decoded row.
//
// An existing non-empty Name column is copied verbatim. Otherwise the name is
// "First Name" and "Last Name" joined by a space and trimmed; missing parts
// count as empty strings.
func Normalize(id int, row Row) Contact {
	name := row.Get(schema.ColName)
	if name == "" {
		name = strings.TrimSpace(row.Get(schema.ColFirstName) + " " + row.Get(schema.ColLastName))
	}
	return Contact{ID: id, Name: name, Fields: row}
}

// DisplayName returns the name, or "Unknown" when it is empty.
func (c Contact) DisplayName() string {
	return orDefault(c.Name, schema.UnknownName)
}

// Phone1 returns the first phone value, or "N/A".
func (c Contact) Phone1() string {
	return orDefault(c.Fields.Get(schema.ColPhone1), schema.MissingPhone)
}

// Phone2 returns the second phone value, or "N/A".
func (c Contact) Phone2() string {
	return orDefault(c.Fields.Get(schema.ColPhone2), schema.MissingPhone)
}

// SearchPhone is the phone the search filter matches against: the first
// non-empty of Phone 1 and Phone 2, or "N/A".
func (c Contact) SearchPhone() string {
	if p := c.Fields.Get(schema.ColPhone1); p != "" {
		return p
	}
	return c.Phone2()
}

// Label renders the contact the way both list columns show it.
func (c Contact) Label() string {
	return c.DisplayName() + " - " + c.Phone1() + " - " + c.Phone2()
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
