package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	version := GetVersion()
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	storageAddr := config.Storage.Remote.Address
	if storageAddr == "" {
		storageAddr = "local only (" + config.Storage.Local.Path + ")"
	}

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 70
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` 88888888888                    888          888b     d888 d8b               888`,
		`     888                        888          8888b   d8888 Y8P               888`,
		`     888                        888          88888b.d88888                   888`,
		`     888  888d888 8888b.   .d88888  .d88b.   888Y88888P888 888 88888b.   .d88888`,
		`     888  888P"      "88b d88" 888 d8P  Y8b  888 Y888P 888 888 888 "88b d88" 888`,
		`     888  888    .d888888 888  888 88888888  888  Y8P  888 888 888  888 888  888`,
		`     888  888    888  888 Y88b 888 Y8b.      888   "   888 888 888  888 Y88b 888`,
		`     888  888    "Y888888  "Y88888  "Y8888   888       888 888 888  888  "Y88888`,
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s  Position Tracking & Market Data%s\n\n%s\n\n", textColor, banner.ColorReset, hr)

	kvPad := 16
	kvLines := [][2]string{
		{"Version", version},
		{"Environment", config.Environment},
		{"Service URL", serviceURL},
		{"Storage", storageAddr},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	logger.Info().
		Str("version", version).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Msg("Application started")
}
