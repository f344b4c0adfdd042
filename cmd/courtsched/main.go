package main

import (
	"context"

	"courtsched/cmd/courtsched/commands"
	"courtsched/lib/serviceutil"
	"courtsched/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	t, err := telemetry.SetupFromEnv(ctx, "courtsched")
	if err == nil {
		defer t.Shutdown(context.Background())
	}
	commands.ExecuteContext(ctx)
}
