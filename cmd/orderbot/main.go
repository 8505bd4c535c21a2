package main

import (
	"context"

	"orderbot/cmd/orderbot/commands"
	"orderbot/lib/serviceutil"
	"orderbot/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	// telemetry.json5 is optional, runs work fine without an exporter
	_ = telemetry.SetupFromEnv(context.Background(), "orderbot")
	defer telemetry.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
