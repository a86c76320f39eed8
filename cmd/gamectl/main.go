package main

import (
	"log"
	"os"

	"baby-name-game/internal/app"
	"baby-name-game/internal/config"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	log.SetFlags(0)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	c := &cli{cfg: config.Load(), open: app.Open, out: os.Stdout}
	cobra.CheckErr(newCmd(c).Execute())
}
