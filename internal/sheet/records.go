package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/contactsel/internal/core"
)

// ContextCheckInterval is how often (in rows) to check for cancellation.
var ContextCheckInterval = 100

// emptyHeader names columns whose header cell is blank.
const emptyHeader = "__EMPTY"

// tableToRows converts a header row plus data rows into records.
//
// Fully blank rows are skipped and empty cells are left out of the record,
// so a missing column and an empty cell look the same downstream.
func tableToRows(ctx context.Context, table [][]string) ([]core.Row, error) {
	if len(table) == 0 {
		return nil, nil
	}

	width := 0
	for _, rec := range table {
		if len(rec) > width {
			width = len(rec)
		}
	}
	keys := headerKeys(table[0], width)

	rows := make([]core.Row, 0, len(table)-1)
	for i, rec := range table[1:] {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isEmptyRow(rec) {
			continue
		}

		row := make(core.Row, len(rec))
		for j, cell := range rec {
			if cell == "" {
				continue
			}
			row[keys[j]] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerKeys builds one unique key per column. Blank headers become
// "__EMPTY"; repeats get "_1", "_2", ... suffixes in column order, skipping
// any suffixed key that an earlier column already uses.
func headerKeys(header []string, width int) []string {
	keys := make([]string, width)
	seen := make(map[string]int, width)

	for i := 0; i < width; i++ {
		base := ""
		if i < len(header) {
			base = strings.TrimSpace(header[i])
		}
		if base == "" {
			base = emptyHeader
		}

		key := base
		if n := seen[base]; n == 0 {
			seen[base] = 1
		} else {
			for seen[key] > 0 {
				key = fmt.Sprintf("%s_%d", base, n)
				n++
			}
			seen[base] = n
			seen[key] = 1
		}
		keys[i] = key
	}
	return keys
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
