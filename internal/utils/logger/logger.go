package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger and installs it as the zap global.
func New(appEnv, appName, level string) *zap.Logger {
	log := zap.Must(zap.NewDevelopment())
	if appEnv == "production" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.StacktraceKey = "stacktrace"
		config.EncoderConfig.LevelKey = "severity"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.CallerKey = "caller"
		config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		config.Encoding = "json"
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}

		var err error
		log, err = config.Build()
		if err != nil {
			panic(err)
		}
	}

	if appName != "" {
		log = log.With(zap.String("service_name", appName), zap.String("env", appEnv))
	}

	zap.ReplaceGlobals(log)
	return log
}
