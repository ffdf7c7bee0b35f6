package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-sentiment-agent/internal/analyzer"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/render"
	"stock-sentiment-agent/internal/sentiment"
	"stock-sentiment-agent/internal/server"
	"stock-sentiment-agent/internal/trace"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sentistock",
		Short:         "News sentiment versus price trend for a stock ticker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	root.SetOut(out)

	root.AddCommand(newAnalyzeCmd(out, &configPath), newCompareCmd(out, &configPath), newServeCmd(&configPath))
	return root
}

type analyzeFlags struct {
	days      int
	verbose   bool
	json      bool
	threshold float64
}

func newAnalyzeCmd(out io.Writer, configPath *string) *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze <TICKER>",
		Short: "Score recent headlines for TICKER and compare with its price trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeSystem("OFF", f.verbose); err != nil {
				return err
			}
			defer shutdownTracer()

			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}

			an, cleanup, err := initializeAnalyzer(ctx, cfg, metrics.Default())
			defer cleanup()
			if err != nil {
				return err
			}

			req := analyzer.Request{Ticker: args[0], Days: f.days}
			th := sentiment.Symmetric(cfg.Sentiment.Threshold)
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &f.threshold
				th = sentiment.Symmetric(f.threshold)
			}

			r, err := an.Analyze(ctx, req)
			if err != nil {
				return err
			}

			if f.json {
				return render.JSON(out, r)
			}
			return render.Text(out, r, render.TextOptions{
				Verbose:    f.verbose,
				Top:        cfg.Analysis.TopHeadlines,
				Thresholds: &th,
			})
		},
	}

	cmd.Flags().IntVar(&f.days, "days", 0, "number of calendar days ending today (default from config)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "list every scored headline and enable debug logging")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the report as JSON")
	cmd.Flags().Float64Var(&f.threshold, "threshold", sentiment.DefaultThreshold, "polarity threshold for positive/negative classification")
	return cmd
}

func newCompareCmd(out io.Writer, configPath *string) *cobra.Command {
	var days int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <TICKER> <TICKER>...",
		Short: "Compare percent price change across tickers over one range",
		Args:  cobra.RangeArgs(2, analyzer.MaxCompareTickers),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeSystem("OFF", false); err != nil {
				return err
			}
			defer shutdownTracer()

			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}

			an, cleanup, err := initializeAnalyzer(ctx, cfg, metrics.Default())
			defer cleanup()
			if err != nil {
				return err
			}

			c, err := an.Compare(ctx, analyzer.CompareRequest{Tickers: args, Days: days})
			if err != nil {
				return err
			}
			if asJSON {
				return render.CompareJSON(out, c)
			}
			return render.CompareText(out, c)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "number of calendar days ending today (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeSystem("INFO", false); err != nil {
				return err
			}
			defer shutdownTracer()

			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}

			an, cleanup, err := initializeAnalyzer(ctx, cfg, metrics.Default())
			defer cleanup()
			if err != nil {
				return err
			}

			return server.New(an, server.WithAddr(addr)).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
}
