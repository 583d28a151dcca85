/*
Copyright © 2026 Vestigio <dev@vestigio.app>
*/

package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	releaseVersion = "0.2.0"
)

func main() {
	// Optional .env next to the binary; real env always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
