// Package main provides the entry point for the noteseek CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/noteseek/noteseek/cmd/noteseek/cmd"
)

func main() {
	// A .env in the working directory may carry NOTESEEK_* overrides.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
