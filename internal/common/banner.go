package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner for both the build and serve
// subcommands and logs the same information structurally through arbor.
func PrintBanner(config *Config, logger arbor.ILogger, mode string) {
	version := GetVersion()
	build := GetBuild()
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(72)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("LIDMETA")
	b.PrintCenteredText("MusicBrainz dump ingest and artist search")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Mode", mode, 15)
	if mode == "serve" {
		b.PrintKeyValue("Listen", serviceURL, 15)
		b.PrintKeyValue("Search mode", config.Search.Mode, 15)
	}
	b.PrintKeyValue("Doc root", config.Storage.DocumentRoot, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("mode", mode).
		Str("doc_root", config.Storage.DocumentRoot).
		Str("search_mode", config.Search.Mode).
		Msg("lidmeta started")
}

// PrintShutdownBanner displays the shutdown banner and logs the shutdown.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("LIDMETA")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("lidmeta shutting down")
}
