package main

import (
	"context"
	"log/slog"
	"os"

	"keygate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		slog.Error("keygate exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
