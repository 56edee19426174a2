package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/crator/internal/config"
	"github.com/jacoelho/crator/internal/runner"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg, exitResult := config.Parse(args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	r, exitResult := runner.New(cfg)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return r.Run(ctx)
}
