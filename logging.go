package examauth

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter bridges a zerolog.Logger to the package Logger interface.
type ZerologAdapter struct {
	log zerolog.Logger
}

// NewZerologAdapter wraps the given zerolog logger.
func NewZerologAdapter(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log}
}

func (z *ZerologAdapter) Debug(format string, args ...any) { z.log.Debug().Msgf(format, args...) }
func (z *ZerologAdapter) Info(format string, args ...any)  { z.log.Info().Msgf(format, args...) }
func (z *ZerologAdapter) Warn(format string, args ...any)  { z.log.Warn().Msgf(format, args...) }
func (z *ZerologAdapter) Error(format string, args ...any) { z.log.Error().Msgf(format, args...) }
