package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/boyingliu01/pdf-translation/cmd/pdftrans/cmd"
)

func main() {
	// Local .env files are a convenient place for PDFTRANS_* overrides.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
