package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/githubtune/githubtune/internal/contrib"
	gerrors "github.com/githubtune/githubtune/internal/errors"
	"github.com/githubtune/githubtune/internal/metrics"
	"github.com/githubtune/githubtune/internal/retry"
)

// Options configures the multi-year aggregation walk.
type Options struct {
	// BaseURL is the upstream root, e.g. "https://github.com".
	BaseURL string
	// BatchSize bounds concurrent history fetches per batch.
	BatchSize int
	// BatchDelay paces consecutive batches to stay under upstream
	// rate-limit radar.
	BatchDelay time.Duration
	// FloorYear is the oldest year the walk will request.
	FloorYear int
	// KeepInactiveYears disables the zero-activity stopping heuristic. With
	// the heuristic on, a genuinely inactive year ends the walk and older
	// activity is never fetched.
	KeepInactiveYears bool
	// Retry applies to the anchor fetch only.
	Retry retry.Config
}

// Aggregator walks a user's contribution history year by year and merges
// the parsed grids into one result.
type Aggregator struct {
	fetcher Fetcher
	opts    Options
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAggregator creates an aggregator. metrics may be nil (CLI usage).
func NewAggregator(fetcher Fetcher, opts Options, m *metrics.Metrics, logger zerolog.Logger) *Aggregator {
	if opts.BatchSize < 1 {
		opts.BatchSize = 5
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Aggregator{
		fetcher: fetcher,
		opts:    opts,
		metrics: m,
		logger:  logger.With().Str("component", "aggregator").Logger(),
		now:     time.Now,
	}
}

// Aggregate fetches and parses every discoverable year of a user's
// contribution history. The anchor (most recent) fetch failing is fatal;
// every historical year degrades gracefully to an omission.
func (a *Aggregator) Aggregate(ctx context.Context, username string) (contrib.All, error) {
	anchorURL := a.opts.BaseURL + "/users/" + url.PathEscape(username) + "/contributions"

	var body string
	err := retry.Do(ctx, a.opts.Retry, func(ctx context.Context) error {
		var fetchErr error
		body, fetchErr = a.fetchDocument(ctx, "anchor", anchorURL)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("anchor fetch for %s: %w", username, err)
	}

	weeks, err := ParseCalendar(body)
	if err != nil {
		a.recordParseError(err)
		return nil, fmt.Errorf("anchor parse for %s: %w", username, err)
	}
	a.observeWeeks(len(weeks))

	links := ExtractYearLinks(body)
	if len(links) == 0 {
		// No year navigation at all; key the anchor data by the present
		// calendar year and call it done.
		year := a.now().Year()
		a.logger.Debug().Str("username", username).Int("year", year).
			Msg("no year links discovered, returning anchor year only")
		return contrib.All{
			strconv.Itoa(year): {Weeks: weeks, Year: year},
		}, nil
	}

	anchorYear := links[0].Year
	result := contrib.All{
		strconv.Itoa(anchorYear): {Weeks: weeks, Year: anchorYear},
	}

	a.walkHistory(ctx, username, links[1:], anchorYear, result)
	return result, nil
}

// yearResult carries one historical year's outcome out of a batch.
type yearResult struct {
	link  YearLink
	weeks []contrib.Week
	err   error
}

// walkHistory fetches the remaining years in bounded concurrent batches,
// oldest batches last, merging successes into result. Batches stay strictly
// sequential so the zero-activity stopping signal is observed before older
// history is requested; a full batch's worth of over-fetch past the true
// stopping year is an accepted tradeoff.
func (a *Aggregator) walkHistory(ctx context.Context, username string, links []YearLink, anchorYear int, result contrib.All) {
	var pending []YearLink
	for _, l := range links {
		if l.Year == anchorYear || l.Year < a.opts.FloorYear {
			continue
		}
		pending = append(pending, l)
	}

	for start := 0; start < len(pending); start += a.opts.BatchSize {
		end := start + a.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		results := make([]yearResult, len(batch))
		var wg sync.WaitGroup
		for i, link := range batch {
			wg.Add(1)
			go func(i int, link YearLink) {
				defer wg.Done()
				results[i] = a.fetchYear(ctx, link)
			}(i, link)
		}
		wg.Wait()

		stop := false
		for _, r := range results {
			year := contrib.Year{Weeks: r.weeks, Year: r.link.Year}
			switch {
			case r.err != nil:
				// Partial failure: drop the year, keep the rest.
				a.logger.Warn().Err(r.err).Str("username", username).
					Int("year", r.link.Year).Msg("dropping year")
				a.recordDrop(dropReason(r.err))
			case !year.HasActivity() && !a.opts.KeepInactiveYears:
				// Walking backward, a silent year reads as the start of
				// history.
				a.logger.Debug().Str("username", username).Int("year", r.link.Year).
					Msg("zero-activity year, ending history walk")
				a.recordDrop("inactive")
				stop = true
			default:
				a.observeWeeks(len(r.weeks))
				result[strconv.Itoa(r.link.Year)] = year
			}
			if stop {
				// Results are newest-first, so everything after the silent
				// year predates the start of history. Its data was fetched
				// but must not leak into the result.
				break
			}
		}
		if stop || end == len(pending) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.opts.BatchDelay):
		}
	}
}

// fetchYear fetches and parses one historical year.
func (a *Aggregator) fetchYear(ctx context.Context, link YearLink) yearResult {
	target := link.URL
	if strings.HasPrefix(target, "/") {
		target = a.opts.BaseURL + target
	}
	body, err := a.fetchDocument(ctx, "history", target)
	if err != nil {
		return yearResult{link: link, err: err}
	}
	weeks, err := ParseCalendar(body)
	if err != nil {
		a.recordParseError(err)
		return yearResult{link: link, err: err}
	}
	return yearResult{link: link, weeks: weeks}
}

// fetchDocument fetches one contributions page and applies the cheap shape
// guard before anyone tries to parse it.
func (a *Aggregator) fetchDocument(ctx context.Context, role, target string) (string, error) {
	status, body, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		a.recordFetch(role, "error")
		return "", gerrors.NewFetchError(target, status, err)
	}
	if status != 200 {
		a.recordFetch(role, "error")
		return "", gerrors.NewFetchError(target, status, nil)
	}
	if !strings.Contains(body, CalendarMarker) {
		a.recordFetch(role, "shape")
		return "", gerrors.NewShapeError(target)
	}
	a.recordFetch(role, "ok")
	return body, nil
}

func dropReason(err error) string {
	if gerrors.IsShape(err) {
		return "shape"
	}
	var ue *gerrors.UpstreamError
	if errors.As(err, &ue) {
		return "fetch"
	}
	return "parse"
}

func (a *Aggregator) recordFetch(role, outcome string) {
	if a.metrics != nil {
		a.metrics.RecordFetch(role, outcome)
	}
}

func (a *Aggregator) recordDrop(reason string) {
	if a.metrics != nil {
		a.metrics.RecordYearDropped(reason)
	}
}

func (a *Aggregator) recordParseError(err error) {
	if a.metrics == nil {
		return
	}
	kind := "structure"
	switch {
	case errors.Is(err, gerrors.ErrTableNotFound):
		kind = "table_missing"
	case errors.Is(err, gerrors.ErrUnexpectedRowCount):
		kind = "row_count"
	}
	a.metrics.RecordParseError(kind)
}

func (a *Aggregator) observeWeeks(n int) {
	if a.metrics != nil {
		a.metrics.WeeksScraped.Observe(float64(n))
	}
}
