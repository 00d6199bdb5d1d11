package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masahif/bgpscope/internal/report"
	"github.com/masahif/bgpscope/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs or print the results of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("database_path")
	if dbPath == "" {
		return fmt.Errorf("run history is disabled (empty database path)")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		run, err := store.GetRun(id)
		if err != nil {
			return err
		}
		results, err := store.RunResults(id)
		if err != nil {
			return err
		}
		return report.NewTextWriter(out).Write(run.Company, results)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tCOMPANY\tREASON\tPAGES\tRANGES\tNAMES")
	for _, r := range runs {
		reason := r.Reason
		if reason == "" {
			reason = "running"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Company, reason, r.PagesProcessed, r.AddressRanges, r.DomainNames)
	}
	return tw.Flush()
}
