package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"task-planner-supervisor/internal/adapters/primary/cli"
)

func main() {
	// SIGINT and SIGTERM cancel the context; the supervisor forwards the stop
	// signal to its children and waits for them.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.WithError(err).Error("supervisor exited")
	}
	os.Exit(cli.ExitCode(err))
}
