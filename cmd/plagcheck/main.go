package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/plagscan/plagscan-dashboard/internal/cli"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
