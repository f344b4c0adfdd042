package commands

import (
	"fmt"
	"os"
	"time"

	"courtsched/lib/serviceutil"
	"courtsched/lib/timezone"
	"courtsched/services/reservation/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int64

func init() {
	historyLimit = historyCmd.Flags().Int64("limit", 20, "How many attempts to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Shows the most recent reservation attempts.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		database, err := config.History.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open history db", err)
		}
		defer database.Close()

		attempts, err := db.New(database).ListAttempts(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list attempts", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Ran At", "Target", "Strategy", "Court", "Window", "Outcome"})

		for _, attempt := range attempts {
			window := ""
			if attempt.StartTime != "" {
				window = attempt.StartTime + "~" + attempt.EndTime
			}
			court := ""
			if attempt.Court != 0 {
				court = fmt.Sprintf("%d", attempt.Court)
			}
			t.AppendRow(table.Row{
				time.Unix(attempt.StartedAt, 0).In(timezone.Location).Format("2006-01-02 15:04"),
				attempt.TargetDate,
				attempt.Strategy,
				court,
				window,
				attempt.Outcome,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()

		last, err := db.New(database).GetLatestSuccess(cmd.Context())
		if err == nil {
			fmt.Printf("last success: %s court %d %s~%s\n",
				last.TargetDate, last.Court, last.StartTime, last.EndTime)
		}
	},
}
