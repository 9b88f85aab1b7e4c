package main

import (
	"os"

	"github.com/agenthands/lineage/internal/logger"
)

func main() {
	logger.Init(logger.Options{Level: os.Getenv("LOG_LEVEL"), Prefix: "lineage"})
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
