package scrape

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// YearLink is a navigable link to one year's contributions view.
type YearLink struct {
	Year int
	URL  string
}

// Selectors for the year navigation list. The js- class is the stable hook;
// the filter-list fallback survived one past redesign where the hook class
// was briefly dropped.
const (
	yearLinkSelector         = "a.js-year-link"
	yearLinkFallbackSelector = "ul.filter-list li a"
)

// ExtractYearLinks finds the year-selector links on a profile contributions
// document, normalized to request the contributions view of each year and
// sorted newest first. This is a best-effort auxiliary signal: any
// structural failure yields an empty list, never an error.
func ExtractYearLinks(html string) []YearLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	anchors := doc.Find(yearLinkSelector)
	if anchors.Length() == 0 {
		anchors = doc.Find(yearLinkFallbackSelector)
	}

	var links []YearLink
	anchors.Each(func(_ int, a *goquery.Selection) {
		year, ok := parseYearText(a.Text())
		if !ok {
			return
		}
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		normalized, ok := normalizeYearURL(href, year)
		if !ok {
			return
		}
		links = append(links, YearLink{Year: year, URL: normalized})
	})

	sort.Slice(links, func(i, j int) bool { return links[i].Year > links[j].Year })
	return links
}

// parseYearText accepts exactly a 4-digit year as the anchor's visible text.
func parseYearText(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if len(text) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(text)
	if err != nil || year < 1000 {
		return 0, false
	}
	return year, true
}

// normalizeYearURL rewrites a year anchor's overview href into the
// contributions view for that year. Profile hrefs look like
// "/torvalds?tab=overview&from=2024-12-01&to=2024-12-31"; the contributions
// view lives at "/users/torvalds/contributions".
func normalizeYearURL(href string, year int) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}
	if segments[0] != "users" {
		u.Path = "/users/" + segments[0] + "/contributions"
	}

	q := u.Query()
	q.Del("tab")
	if q.Get("from") == "" {
		q.Set("from", strconv.Itoa(year)+"-01-01")
	}
	if q.Get("to") == "" {
		q.Set("to", strconv.Itoa(year)+"-12-31")
	}
	u.RawQuery = q.Encode()

	return u.String(), true
}
