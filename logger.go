package multicipher

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is shared by every package of the module. Key material, IVs and
// plaintext are never logged.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	Level(zerolog.InfoLevel).
	With().
	Timestamp().
	Logger()

// SetLogLevel parses a zerolog level name ("debug", "info", ...) and applies
// it to Logger.
func SetLogLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger = Logger.Level(l)
	return nil
}
