package sheetsclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Columns written by PublishRoster; any other column in an existing tab is
// preserved per volunteer.
var rosterColumns = []string{"Volunteer ID", "Employee ID", "Name", "Status", "Rating", "Added on"}

// RosterRow is one volunteer of an event
type RosterRow struct {
	VolunteerID int
	EmployeeID  string
	Name        string
	Status      string
	Rating      int
	AddedOn     string
}

// Roster is the volunteer list of one event
type Roster struct {
	EventID   int
	EventName string
	Rows      []RosterRow
}

// TabTitle returns the tab name for the roster, e.g. "Beach Clean-up (42)"
func (r *Roster) TabTitle() string {
	name := strings.TrimSpace(r.EventName)
	if name == "" {
		name = "Event"
	}
	// Sheets rejects some characters in tab titles
	name = strings.NewReplacer("[", "(", "]", ")", ":", "-", "*", "", "?", "", "/", "-", "\\", "-").Replace(name)
	return fmt.Sprintf("%s (%d)", name, r.EventID)
}

// PublishRoster writes the roster to its own tab. If the tab already exists
// the managed columns are overwritten and extra columns (notes, hours, ...)
// are carried over for volunteers still on the roster.
func (c *Client) PublishRoster(ctx context.Context, spreadsheetID string, roster *Roster) error {
	title := roster.TabTitle()

	exists, err := c.SheetExists(ctx, spreadsheetID, title)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.GetValues(ctx, spreadsheetID, fmt.Sprintf("'%s'!A1:ZZ", title))
		if err != nil {
			return fmt.Errorf("failed to read existing tab data: %w", err)
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	values := BuildRosterValues(existing, roster)

	if err := c.UpdateValues(ctx, spreadsheetID, fmt.Sprintf("'%s'!A1", title), values); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}

	return nil
}

// BuildRosterValues produces the full tab contents: header then one row per
// volunteer. existing is the current tab contents (nil for a new tab).
// Rows that disappear from the roster are blanked so stale data is overwritten.
func BuildRosterValues(existing [][]interface{}, roster *Roster) [][]interface{} {
	var extraCols []string
	extraByVolunteer := map[string][]interface{}{}

	if len(existing) > 0 {
		header := existing[0]
		idCol := findColumnIndex(header, "Volunteer ID")

		var extraIdx []int
		for i, cell := range header {
			name, ok := cell.(string)
			if !ok || name == "" || isRosterColumn(name) {
				continue
			}
			extraCols = append(extraCols, name)
			extraIdx = append(extraIdx, i)
		}

		if idCol != -1 {
			for _, row := range existing[1:] {
				if idCol >= len(row) {
					continue
				}
				id := fmt.Sprint(row[idCol])
				extras := make([]interface{}, len(extraIdx))
				for j, col := range extraIdx {
					if col < len(row) {
						extras[j] = row[col]
					} else {
						extras[j] = ""
					}
				}
				extraByVolunteer[id] = extras
			}
		}
	}

	width := len(rosterColumns) + len(extraCols)

	header := make([]interface{}, 0, width)
	for _, col := range rosterColumns {
		header = append(header, col)
	}
	for _, col := range extraCols {
		header = append(header, col)
	}

	values := [][]interface{}{header}
	for _, row := range roster.Rows {
		id := strconv.Itoa(row.VolunteerID)
		sheetRow := []interface{}{id, row.EmployeeID, row.Name, row.Status, row.Rating, row.AddedOn}

		extras, ok := extraByVolunteer[id]
		for j := range extraCols {
			if ok {
				sheetRow = append(sheetRow, extras[j])
			} else {
				sheetRow = append(sheetRow, "")
			}
		}
		values = append(values, sheetRow)
	}

	for i := len(values); i < len(existing); i++ {
		blank := make([]interface{}, width)
		for j := range blank {
			blank[j] = ""
		}
		values = append(values, blank)
	}

	return values
}

func isRosterColumn(name string) bool {
	for _, col := range rosterColumns {
		if col == name {
			return true
		}
	}
	return false
}

// findColumnIndex finds the index of a column by its header name
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && str == columnName {
			return i
		}
	}
	return -1
}
