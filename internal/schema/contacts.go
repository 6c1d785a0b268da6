// Package schema defines the spreadsheet columns the contact selector reads
// and writes.
package schema

// Input column headers. None of them are required; absent columns degrade to
// the fallback sentinels below.
const (
	ColName      = "Name"
	ColFirstName = "First Name"
	ColLastName  = "Last Name"
	ColPhone1    = "Phone 1 - Value"
	ColPhone2    = "Phone 2 - Value"
)

// Fallback sentinels substituted for missing values in the view and export.
const (
	UnknownName  = "Unknown"
	MissingPhone = "N/A"
)

// Export workbook naming.
const (
	ExportSheetName = "Selected Contacts"
	ExportFileName  = "selected_contacts.xlsx"
)

// Column describes one spreadsheet column and the value used when a record
// has nothing for it.
type Column struct {
	Name     string
	Fallback string
}

// ImportColumns lists the headers the normalizer and search filter look at.
// They are expected, not enforced.
var ImportColumns = []Column{
	{Name: ColName, Fallback: UnknownName},
	{Name: ColFirstName},
	{Name: ColLastName},
	{Name: ColPhone1, Fallback: MissingPhone},
	{Name: ColPhone2, Fallback: MissingPhone},
}

// ExportColumns is the fixed export schema, in column order.
var ExportColumns = []Column{
	{Name: ColName, Fallback: UnknownName},
	{Name: ColPhone1, Fallback: MissingPhone},
	{Name: ColPhone2, Fallback: MissingPhone},
}

// ExportHeader returns the export header row.
func ExportHeader() []string {
	header := make([]string, len(ExportColumns))
	for i, col := range ExportColumns {
		header[i] = col.Name
	}
	return header
}
