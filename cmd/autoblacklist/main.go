package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/autoblacklist"
	"github.com/raykavin/autoblacklist/internal/config"
	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/raykavin/autoblacklist/pkg/pairsync"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	envFile  string
	logLevel string
	apply    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "autoblacklist",
		Short:        "Suppress freshly listed Binance pairs in trading bot pair files",
		Version:      "1.0.0",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(buildRunCmd(), buildCheckCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch for new listings and keep the pair files in sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}

func buildCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single detection pass and show the resulting pair file changes",
		RunE:  runCheck,
	}

	checkCmd.Flags().BoolVar(&apply, "apply", false, "Write the changes instead of only showing them")

	return checkCmd
}

func newApp(cmd *cobra.Command, options ...autoblacklist.Option) (*autoblacklist.Autoblacklist, error) {
	cfg, err := config.Load(cmd.Flags(), envFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		options = append(options, autoblacklist.WithLogLevel(logger.ParseLevel(logLevel)))
	}

	return autoblacklist.New(cfg, options...)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	var options []autoblacklist.Option
	if !apply {
		options = append(options, autoblacklist.WithDryRun())
	}

	app, err := newApp(cmd, options...)
	if err != nil {
		return err
	}

	result, err := app.Check(cmd.Context())
	if err != nil {
		return err
	}

	printListings(cmd.OutOrStdout(), result)
	printChanges(cmd.OutOrStdout(), result.Report, apply)

	return nil
}

func printListings(out io.Writer, result autoblacklist.CheckResult) {
	flag := result.Settings.Flag()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Symbol", "Released", "Age (days)", "Key", "Desired"})
	table.SetAutoWrapText(false)

	for _, entry := range result.Entries {
		age := entry.Age(result.Now)

		desired := "untouched"
		switch {
		case age <= result.Settings.Days:
			desired = flag.Suppressed
		case result.Settings.Clear:
			desired = "removed"
		}

		table.Append([]string{
			entry.Symbol,
			entry.ReleasedAt.Local().Format(time.DateTime),
			strconv.Itoa(age),
			flag.Key(entry.Symbol, result.Settings.Market),
			desired,
		})
	}

	table.SetFooter([]string{"", "", "", "Listings", strconv.Itoa(len(result.Entries))})
	table.Render()
}

func printChanges(out io.Writer, report pairsync.Report, applied bool) {
	if len(report.Changes) == 0 {
		fmt.Fprintln(out, "All pair files are up to date")
	}

	byFile := lo.GroupBy(report.Changes, func(c pairsync.Change) string { return c.File })
	files := lo.Keys(byFile)
	sort.Strings(files)

	for _, file := range files {
		changes := byFile[file]
		suppressed := lo.CountBy(changes, func(c pairsync.Change) bool { return c.Action == pairsync.ActionSuppress })
		fmt.Fprintf(out, "%s: %d suppressed, %d cleared\n", file, suppressed, len(changes)-suppressed)
	}

	for file, err := range report.Failed {
		fmt.Fprintf(out, "%s: %v\n", file, err)
	}

	if len(report.Changes) > 0 && !applied {
		fmt.Fprintln(out, "Dry run, use --apply to write the changes")
	}
}
