package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/devaloi/namechat/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	_ = godotenv.Load()

	app := commands.NewApp(&commands.Flags{}, build())

	if err := app.Run(context.Background(), os.Args); err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
