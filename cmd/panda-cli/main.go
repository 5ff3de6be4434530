package main

import (
	"context"
	"log/slog"
	"time"
	_ "time/tzdata"

	"pandassist/cmd/panda-cli/commands"
	"pandassist/internal/components/telemetry"
	"pandassist/pkg/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	otel, err := telemetry.SetupFromEnv(ctx, "panda-cli")
	if err != nil {
		slog.Debug("telemetry export disabled", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			err := otel.Shutdown(shutdownCtx)
			if err != nil {
				slog.Warn("failed to flush telemetry", "err", err)
			}
		}()
	}

	commands.ExecuteContext(ctx)
}
