package main

import (
	"github.com/joho/godotenv"

	"streamer-stats/internal/cli"
)

func main() {
	// Credentials are commonly supplied via a local .env file; missing files are fine.
	_ = godotenv.Load()

	cli.Execute()
}
