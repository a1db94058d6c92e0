// Command tune fetches a GitHub user's contribution history and plays it
// through the terminal, one week per beat.
//
// Usage:
//
//	tune fetch octocat
//	tune play octocat --year 2024 --scale Joyful --harmony Positive
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/githubtune/githubtune/internal/contrib"
	"github.com/githubtune/githubtune/internal/music"
	"github.com/githubtune/githubtune/internal/retry"
	"github.com/githubtune/githubtune/internal/scrape"
	"github.com/githubtune/githubtune/internal/sequencer"
)

var (
	baseURL string
	timeout time.Duration
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tune",
		Short: "Turn GitHub contribution graphs into music",
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "https://github.com", "profile host to scrape")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log scrape progress")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(playCmd())
	rootCmd.AddCommand(scalesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func cliLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func aggregate(ctx context.Context, username string) (contrib.All, error) {
	fetcher := scrape.NewHTTPFetcher(timeout, "githubtune/1.0 (+https://githubtune.com)")
	agg := scrape.NewAggregator(fetcher, scrape.Options{
		BaseURL:    baseURL,
		BatchSize:  5,
		BatchDelay: 50 * time.Millisecond,
		FloorYear:  2008,
		Retry:      retry.DefaultConfig(),
	}, nil, cliLogger())

	return agg.Aggregate(ctx, username)
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [username]",
		Short: "Fetch a user's full contribution history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := aggregate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(all)
		},
	}
}

func playCmd() *cobra.Command {
	var (
		yearFlag    string
		speed       float64
		scaleName   string
		harmonyName string
	)

	cmd := &cobra.Command{
		Use:   "play [username]",
		Short: "Play a year of contributions in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := aggregate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			year, err := pickYear(all, yearFlag)
			if err != nil {
				return err
			}

			lib := music.Default()
			settings, err := buildSettings(lib, speed, scaleName, harmonyName)
			if err != nil {
				return err
			}

			fmt.Printf("Playing %s's %d: %d weeks on %s",
				args[0], year.Year, len(year.Weeks), settings.Scale.Name)
			if settings.Harmony.Enabled {
				fmt.Printf(" over %s", settings.Harmony.Name)
			}
			fmt.Println()

			seq := sequencer.New(sequencer.NewConsoleSynth(os.Stdout), lib, cliLogger())
			defer seq.StopSound()

			for i := range year.Weeks {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				done := make(chan struct{})
				seq.PlayWeek(cmd.Context(), i, year, settings, func() { close(done) })
				<-done
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&yearFlag, "year", "", "year to play (default: most recent)")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "playback speed multiplier")
	cmd.Flags().StringVar(&scaleName, "scale", "Joyful", "melodic scale")
	cmd.Flags().StringVar(&harmonyName, "harmony", "", "chord progression (empty: melody only)")
	return cmd
}

func scalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scales",
		Short: "List available scales and harmonies",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := music.Default()

			fmt.Println("Scales:")
			for _, s := range lib.AvailableScales(false) {
				fmt.Printf("  %s\n", s.Name)
			}

			fmt.Println("\nHarmonies:")
			for _, h := range lib.AvailableHarmonies() {
				fmt.Printf("  %s (%d chords)\n", h.Name, len(h.Chords))
			}

			return nil
		},
	}
}

// pickYear resolves the --year flag, defaulting to the newest year present.
func pickYear(all contrib.All, flag string) (contrib.Year, error) {
	if len(all) == 0 {
		return contrib.Year{}, fmt.Errorf("no contribution data found")
	}

	if flag != "" {
		year, ok := all[flag]
		if !ok {
			return contrib.Year{}, fmt.Errorf("no data for year %s (have %s)", flag, yearKeys(all))
		}
		return year, nil
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return all[keys[0]], nil
}

func yearKeys(all contrib.All) string {
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}

func buildSettings(lib *music.Library, speed float64, scaleName, harmonyName string) (sequencer.Settings, error) {
	harmonyEnabled := harmonyName != ""

	scale, ok := lib.ScaleByName(scaleName)
	if !ok {
		return sequencer.Settings{}, fmt.Errorf("unknown scale %q (try 'tune scales')", scaleName)
	}

	settings := sequencer.Settings{
		Speed: speed,
		Scale: scale,
		Harmony: sequencer.HarmonySettings{
			Enabled: harmonyEnabled,
			Name:    harmonyName,
		},
	}

	if err := settings.Validate(lib); err != nil {
		return sequencer.Settings{}, err
	}
	return settings, nil
}
