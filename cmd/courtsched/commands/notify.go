package commands

import (
	"courtsched/lib/serviceutil"
	"courtsched/services/notify"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Sends a test notification to every configured channel.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		notifiers := buildNotifiers(config.Notify)
		if len(notifiers) == 0 {
			serviceutil.Fatal("no notification channels configured", nil)
		}

		err = notifiers.Notify(cmd.Context(), notify.Message{
			Success: true,
			Title:   "Court Scheduler test",
			Body:    "If you can read this, notifications are wired up.",
		})
		if err != nil {
			serviceutil.Fatal("failed to send test notification", err)
		}
	},
}
