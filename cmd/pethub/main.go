package main

import (
	"os"

	"github.com/joho/godotenv"

	"pethub/internal/cli"
)

func main() {
	_ = godotenv.Load()
	os.Exit(cli.Execute())
}
