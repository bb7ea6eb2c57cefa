package main

import (
	"os"

	"github.com/panchen451161722/daoaiagent/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error("%v", err)
		logger.Sync()
		os.Exit(1)
	}
}
