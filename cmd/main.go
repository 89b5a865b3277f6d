package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brightpath/learning-core/internal/app"
	"github.com/brightpath/learning-core/internal/services"
)

func main() {
	os.Exit(run())
}

// run carries the real work so deferred cleanup (log flush, backend and
// cache handles) executes before the process exit code is set.
func run() int {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reports, err := a.SyncContentDir(ctx)
	if err != nil {
		a.Log.Error("Content sync failed", "error", err)
		return 1
	}
	failed := 0
	for _, report := range reports {
		if report.Action == services.SyncFailed {
			failed++
			a.Log.Error("Document sync failed", "source_id", report.SourceID, "error", report.Err)
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}
