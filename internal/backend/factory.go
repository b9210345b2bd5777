package backend

import (
	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/store"
)

// New creates a Client from configuration, wrapped with retry and logging
// middleware: caller → retry → logging → HTTP.
func New(cfg Config, events store.EventRepo, log *logger.Logger) (Client, error) {
	base, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	logged := WithLogging(base, events, log)
	return WithRetry(logged, cfg.Retry), nil
}
