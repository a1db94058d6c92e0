// Package contrib defines the contribution-calendar domain types shared by
// the scraper and the playback engine.
package contrib

// MaxLevel is the highest intensity bucket GitHub assigns to a day.
const MaxLevel = 4

// Contribution is a single calendar day of activity.
type Contribution struct {
	// Date is the ISO calendar date, e.g. "2025-03-14".
	Date string `json:"date"`
	// Level is the intensity bucket (0–4) GitHub renders for the day.
	Level int `json:"level"`
}

// Week is an ordered run of up to seven days, Sunday first. Boundary weeks at
// the start and end of a year may hold fewer than seven days.
type Week struct {
	Days []Contribution `json:"days"`
}

// Year is one scraped year of activity, weeks in chronological order
// (oldest first).
type Year struct {
	Weeks []Week `json:"weeks"`
	Year  int    `json:"year"`
}

// All maps a four-digit year key ("2025") to that year's grid.
type All map[string]Year

// HasActivity reports whether any day in the year has a level above zero.
func (y Year) HasActivity() bool {
	for _, w := range y.Weeks {
		for _, d := range w.Days {
			if d.Level > 0 {
				return true
			}
		}
	}
	return false
}

// TotalDays counts the days present across all weeks.
func (y Year) TotalDays() int {
	n := 0
	for _, w := range y.Weeks {
		n += len(w.Days)
	}
	return n
}
