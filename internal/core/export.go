package core

import "github.com/JonMunkholm/contactsel/internal/schema"

// ExportRow is one row of the export sheet. Every field is filled: missing
// values carry the schema fallbacks ("Unknown", "N/A").
type ExportRow struct {
	Name   string `json:"Name"`
	Phone1 string `json:"Phone 1 - Value"`
	Phone2 string `json:"Phone 2 - Value"`
}

// Values returns the row in schema.ExportColumns order.
func (r ExportRow) Values() []string {
	return []string{r.Name, r.Phone1, r.Phone2}
}

// Project maps contacts onto the export schema, keeping their order.
func Project(contacts []Contact) []ExportRow {
	rows := make([]ExportRow, len(contacts))
	for i, c := range contacts {
		rows[i] = ExportRow{
			Name:   orDefault(c.Name, schema.UnknownName),
			Phone1: c.Phone1(),
			Phone2: c.Phone2(),
		}
	}
	return rows
}
