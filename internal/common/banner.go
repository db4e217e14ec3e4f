package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("AdImport", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("cancel_backend", config.Import.CancelBackend).
		Int("stream_tick_ms", config.Import.StreamTickMS).
		Msg("Configuration resolved")
}
