// Package logging builds the service's zap logger.
package logging

import (
	"os"

	_ "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
)

// Encoding registered by zap-logfmt.
const Encoding = "logfmt"

// New builds a production logger writing logfmt lines to stdout at level.
// An unknown level falls back to info.
func New(service, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = Encoding
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = service
	cfg.OutputPaths = []string{"stdout"}
	return cfg.Build()
}
