package common

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger, initializing a fallback console
// logger if SetupLogger hasn't run yet.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(createWriterConfig(nil, models.LogWriterTypeConsole, ""))
		globalLogger.Warn().Msg("using fallback logger - SetupLogger was not called during startup")
	}
	return globalLogger
}

// InitLogger installs logger as the global singleton.
func InitLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// SetupLogger builds the process logger from config: console and/or file
// writers as configured, plus an always-on memory writer backing the
// /ws/logs streaming endpoint.
func SetupLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	hasFile, hasConsole := false, false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			hasFile = true
		case "stdout", "console":
			hasConsole = true
		}
	}

	if hasFile {
		logDir := config.Logging.Directory
		if logDir == "" {
			logDir = "./logs"
		}
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			tmp := logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
			tmp.Warn().Err(err).Str("logs_dir", logDir).Msg("failed to create logs directory")
		} else {
			logFile := filepath.Join(logDir, "lidmeta.log")
			logger = logger.WithFileWriter(createWriterConfig(config, models.LogWriterTypeFile, logFile))
		}
	}

	if hasConsole || !hasFile {
		logger = logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
	}

	// Memory writer backs the serve subcommand's live log streaming.
	logger = logger.WithMemoryWriter(createWriterConfig(config, models.LogWriterTypeMemory, ""))
	logger = logger.WithLevelFromString(config.Logging.Level)

	InitLogger(logger)
	return logger
}

func createWriterConfig(config *Config, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	timeFormat := "2006-01-02T15:04:05.000Z07:00"
	if config != nil && config.Logging.TimeFormat != "" {
		timeFormat = config.Logging.TimeFormat
	}
	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       timeFormat,
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       3,
	}
}

// Stop flushes any buffered log writers before process exit. Safe to call
// more than once.
func Stop() {
	arborcommon.Stop()
}
