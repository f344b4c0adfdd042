package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"courtsched/lib/captcha"
	"courtsched/lib/restyutil"
	"courtsched/lib/scrapers/kspo"
	"courtsched/lib/serviceutil"
	"courtsched/lib/telemetry"
	"courtsched/services/notify"
	"courtsched/services/reservation"
	"courtsched/services/reservation/db"

	"github.com/spf13/cobra"
)

var (
	runNow         *bool
	runRestyOutput *string
)

func init() {
	runNow = runCmd.Flags().Bool("now", false,
		"Skip waiting for the 9am opening and reserve immediately.")
	runRestyOutput = runCmd.Flags().String("resty-output", "",
		"Dump every portal http exchange into this directory.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--now]",
	Short: "Runs one reservation attempt and reports the outcome.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if err := config.validate(); err != nil {
			serviceutil.Fatal("incomplete config", err)
		}

		// tee logs into a buffer so the notification can carry them
		buffer := notify.NewLogBuffer(slog.Default().Handler())
		slog.SetDefault(slog.New(buffer))

		portal, err := kspo.NewClient(kspo.ClientOptions{
			BaseUrl:  config.Portal.BaseUrl,
			LoginUrl: config.Portal.LoginUrl,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize portal client", err)
		}
		if *runRestyOutput != "" {
			restyutil.InstrumentClient(portal.Http, restyutil.NewFilesystemOutput(*runRestyOutput))
		}

		solver, err := captcha.NewSolver()
		if err != nil {
			serviceutil.Fatal("failed to initialize captcha solver", err)
		}
		defer solver.Close()
		if err := solver.Preload(); err != nil {
			serviceutil.Fatal("failed to warm up the captcha solver", err)
		}

		history, err := config.History.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open history db", err)
		}
		defer history.Close()

		telemetry.InstrumentPerfStats(cmd.Context())

		service := reservation.NewService(portal, solver, history, reservation.Options{
			Credentials: config.Credentials,
			Strategies:  config.Strategies,
			OpenHour:    config.Open.Hour,
			OpenMinute:  config.Open.Minute,
			Immediate:   *runNow,
		})

		result, runErr := service.Run(cmd.Context())
		message := composeMessage(result, runErr, portal.BaseUrl(), buffer)

		notifiers := buildNotifiers(config.Notify)
		if len(notifiers) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
			defer cancel()
			err = notifiers.Notify(ctx, message)
			if err != nil {
				slog.Error("failed to deliver notification", "err", err)
			}
		}

		if runErr != nil {
			slog.Error("reservation run failed", "err", runErr)
			os.Exit(1)
		}
		slog.Info("reserved", "slot", result.String())
	},
}

func buildNotifiers(config NotifyConfig) notify.Multi {
	var notifiers notify.Multi
	if config.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlack(config.SlackWebhook))
	}
	if config.Email != nil {
		notifiers = append(notifiers, notify.NewEmail(*config.Email))
	}
	return notifiers
}

func composeMessage(result reservation.Result, runErr error, portalUrl string, buffer *notify.LogBuffer) notify.Message {
	if runErr == nil {
		return notify.Message{
			Success: true,
			Title:   fmt.Sprintf("Reserved court %d on %s", result.Window.CourtNo, result.TargetDate),
			Body:    fmt.Sprintf("%s\nPay for it at %s before it expires.", result.String(), portalUrl),
			Logs:    notify.RunLogs(buffer, true),
		}
	}
	return notify.Message{
		Success: false,
		Title:   fmt.Sprintf("Reservation failed: %s", reservation.ClassifyFailure(runErr)),
		Body: fmt.Sprintf("Tried strategies: %s\n%s",
			result.TriedLabel(), runErr.Error()),
		Logs: notify.RunLogs(buffer, false),
	}
}
