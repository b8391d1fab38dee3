// Package main is the entry point for the Datalayer CLI.
package main

import (
	"os"

	"github.com/datalayer/datalayer-go/cmd/dla/app"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
