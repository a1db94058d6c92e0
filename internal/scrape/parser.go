// Package scrape turns GitHub's public contributions HTML into typed
// calendar data. GitHub's markup is unversioned; every shape assumption here
// fails fast rather than degrading into musically-wrong output.
package scrape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/githubtune/githubtune/internal/contrib"
	gerrors "github.com/githubtune/githubtune/internal/errors"
)

// CalendarMarker is the class GitHub puts on the contribution grid. Its
// absence in a response body means we got an error page or a redesign, not
// calendar data.
const CalendarMarker = "ContributionCalendar-grid"

const (
	gridSelector = "table.ContributionCalendar-grid"
	daySelector  = "td.ContributionCalendar-day"
	weekdayRows  = 7
)

// ParseCalendar extracts one year's contribution grid from a profile
// contributions document. Weeks come back oldest first, matching the source
// grid's column order.
func ParseCalendar(html string) ([]contrib.Week, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gerrors.ErrStructureInvalid, err)
	}

	table := doc.Find(gridSelector)
	if table.Length() == 0 {
		return nil, gerrors.ErrTableNotFound
	}

	tbody := table.Find("tbody")
	if tbody.Length() == 0 {
		return nil, gerrors.ErrStructureInvalid
	}

	rows := tbody.Find("tr")
	if rows.Length() != weekdayRows {
		return nil, fmt.Errorf("%w: found %d", gerrors.ErrUnexpectedRowCount, rows.Length())
	}

	// One selection of day cells per weekday row; column index is the week.
	cellsByRow := make([]*goquery.Selection, weekdayRows)
	rows.Each(func(i int, row *goquery.Selection) {
		cellsByRow[i] = row.Find(daySelector)
	})

	weekCount := cellsByRow[0].Length()
	weeks := make([]contrib.Week, 0, weekCount)

	for weekIndex := 0; weekIndex < weekCount; weekIndex++ {
		var week contrib.Week
		for dayIndex := 0; dayIndex < weekdayRows; dayIndex++ {
			cells := cellsByRow[dayIndex]
			if weekIndex >= cells.Length() {
				continue
			}
			cell := cells.Eq(weekIndex)
			date, ok := cell.Attr("data-date")
			if !ok || date == "" {
				// Placeholder cell padding a boundary week.
				continue
			}
			week.Days = append(week.Days, contrib.Contribution{
				Date:  date,
				Level: parseLevel(cell.AttrOr("data-level", "0")),
			})
		}
		weeks = append(weeks, week)
	}

	return weeks, nil
}

// parseLevel coerces the data-level attribute into a 0–4 bucket. Anything
// unparseable counts as no activity.
func parseLevel(raw string) int {
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || level < 0 {
		return 0
	}
	if level > contrib.MaxLevel {
		return contrib.MaxLevel
	}
	return level
}
