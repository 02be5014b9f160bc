package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"DivergenceSentinel/internal/app"
	"DivergenceSentinel/internal/config"
	"DivergenceSentinel/internal/notifier"
	"DivergenceSentinel/internal/render"
)

type options struct {
	configPath string
	provider   string
	preset     string
	timeout    time.Duration
}

func main() {
	log.SetFlags(0)
	log.SetOutput(io.Discard)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var rows int
	root := &cobra.Command{
		Use:   "analyze <code>...",
		Short: "Bullish MACD/RSI divergence analysis for A-share codes",
		Example: `  analyze 600519
  analyze 000001 300750 --preset recent --rows 10
  analyze watch add 600519`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				log.SetOutput(os.Stderr)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return opts.run(func(ctx context.Context, a *app.App) error {
				return analyzeCodes(ctx, cmd.OutOrStdout(), a, args, rows)
			})
		},
	}
	root.Flags().IntVarP(&rows, "rows", "r", 0, "also print the last N indicator rows")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&opts.provider, "provider", "", "data provider: tencent, yahoo or mock")
	root.PersistentFlags().StringVar(&opts.preset, "preset", "", "analysis preset: standard or recent")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout")
	root.PersistentFlags().BoolP("verbose", "v", false, "print log output")

	root.AddCommand(
		newScanCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
		newChartCmd(opts),
	)
	return root
}

// build loads the config, applies the flag overrides and wires the app.
func (o *options) build(ctx context.Context) (*app.App, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.provider != "" {
		cfg.DataSource.Provider = o.provider
	}
	if o.preset != "" {
		cfg.Analysis.Preset = o.preset
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg)
}

func (o *options) run(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	a, err := o.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func analyzeCodes(ctx context.Context, out io.Writer, a *app.App, codes []string, rows int) error {
	failed := 0
	for _, code := range codes {
		rep, err := a.Scanner.AnalyzeOne(ctx, code)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %s (%v)\n\n", code, notifier.FailureReason(err), err)
			continue
		}
		fmt.Fprintln(out, render.AnalysisTable(rep))
		if rows > 0 {
			fmt.Fprintln(out, render.IndicatorTable(rep.Analysis.Series, rows))
		}
		fmt.Fprintln(out)
	}
	if failed == len(codes) {
		return fmt.Errorf("no code could be analyzed")
	}
	return nil
}

func newScanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Analyze every code on the watchlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(func(ctx context.Context, a *app.App) error {
				report, err := a.Scanner.Scan(ctx, "cli")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.ScanTable(report))
				return nil
			})
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Manage the watchlist",
	}

	add := &cobra.Command{
		Use:   "add <code> [name]",
		Short: "Add a code; the name is looked up when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(func(ctx context.Context, a *app.App) error {
				name := ""
				if len(args) == 2 {
					name = args[1]
				}
				item, err := a.Scanner.Watchlist.Add(ctx, args[0], name)
				if err != nil {
					return fmt.Errorf("%s: %s", args[0], notifier.FailureReason(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", item.Code, item.DisplayName())
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:     "del <code>",
		Aliases: []string{"rm"},
		Short:   "Remove a code",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(func(ctx context.Context, a *app.App) error {
				if err := a.Scanner.Watchlist.Remove(ctx, args[0]); err != nil {
					return fmt.Errorf("%s: %s", args[0], notifier.FailureReason(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the watchlist",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(func(ctx context.Context, a *app.App) error {
				items, err := a.Scanner.Watchlist.List(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.WatchlistTable(items))
				return nil
			})
		},
	}

	watch.AddCommand(add, del, list)
	return watch
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(func(ctx context.Context, a *app.App) error {
				records, err := a.Recorder.RecentAnalyses(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.HistoryTable(records))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records")
	return cmd
}

func newChartCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "chart <code>",
		Short: "Write the price/MA chart with the divergence lows as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(func(ctx context.Context, a *app.App) error {
				rep, err := a.Scanner.AnalyzeOne(ctx, args[0])
				if err != nil {
					return fmt.Errorf("%s: %s", args[0], notifier.FailureReason(err))
				}
				path := output
				if path == "" {
					path = rep.Code + ".html"
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := render.WriteChart(f, rep.DisplayName()+" "+rep.Code, rep.Analysis); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <code>.html)")
	return cmd
}
