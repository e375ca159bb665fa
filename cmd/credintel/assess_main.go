package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/credtech/credintel/internal/app"
	"github.com/credtech/credintel/internal/config"
	"github.com/credtech/credintel/internal/rating"
	"github.com/credtech/credintel/internal/store"
)

var (
	highColor   = color.New(color.FgGreen)
	mediumColor = color.New(color.FgYellow)
	lowColor    = color.New(color.FgRed, color.Bold)
)

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess TICKER[:SECTOR]...",
		Short: "Assess companies and print scored ratings",
		Long: `Fetches statements, prices and macro data for each ticker, classifies
it into a rating bucket, expands the bucket into a fine rating, and
prints the scored, explained assessment. Sector labels follow the
ticker after a colon, e.g. AAPL:Technology.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			reqs, err := parseRequests(args)
			if err != nil {
				return err
			}

			stk, err := buildStack(cfg)
			if err != nil {
				return err
			}
			defer stk.close()

			assessments, err := stk.assessor.AssessBatch(context.Background(), reqs)
			if err != nil {
				return err
			}
			if len(assessments) == 0 {
				return fmt.Errorf("no assessments produced for %d tickers", len(reqs))
			}

			writeAssessmentTable(assessments)
			return nil
		},
	}
	return cmd
}

func parseRequests(args []string) ([]app.Request, error) {
	reqs := make([]app.Request, 0, len(args))
	for _, arg := range args {
		ticker, sector, _ := strings.Cut(arg, ":")
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			return nil, fmt.Errorf("empty ticker in %q", arg)
		}
		reqs = append(reqs, app.Request{Ticker: ticker, Sector: strings.TrimSpace(sector)})
	}
	return reqs, nil
}

func writeAssessmentTable(assessments []store.Assessment) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Ticker", "Bucket", "Rating", "Score", "Summary"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, a := range assessments {
		data = append(data, []string{
			a.Ticker,
			colorBucket(a.Bucket),
			a.Rating,
			fmt.Sprintf("%.2f", a.Score),
			a.Explanation.Summary,
		})
	}
	if err := table.Bulk(data); err != nil {
		logger.Warn().Err(err).Msg("table build failed")
		return
	}
	if err := table.Render(); err != nil {
		logger.Warn().Err(err).Msg("table render failed")
	}
}

func colorBucket(b rating.Bucket) string {
	switch b {
	case rating.BucketHigh:
		return highColor.Sprint(string(b))
	case rating.BucketMedium:
		return mediumColor.Sprint(string(b))
	default:
		return lowColor.Sprint(string(b))
	}
}
