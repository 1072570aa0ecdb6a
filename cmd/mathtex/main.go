package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("error", "err", err)
		os.Exit(1)
	}
}
