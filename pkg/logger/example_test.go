package logger_test

import (
	"github.com/wonny/winners/pkg/config"
	"github.com/wonny/winners/pkg/logger"
)

// Example_fields demonstrates tagging log entries per pipeline stage
func Example_fields() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg).WithField("module", "selection")

	log.WithFields(map[string]interface{}{
		"lookback_days": 252,
		"eligible":      1834,
	}).Info("Relative strength ranked")
}
