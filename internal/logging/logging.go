package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger. Mode "prod"/"production" selects JSON
// output at info level; anything else gets a development console logger
// at debug level. The mode usually comes from MENTOR_LOG_MODE.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
