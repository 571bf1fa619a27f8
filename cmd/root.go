package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photobooth",
	Short: "A browser photobooth that turns captured photos into collages",
	Long: `Photobooth serves a browser-based booth: visitors take photos with their
camera, apply filters and get a polaroid-style collage to download or print.

The same compositor is available offline through the collage command.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
