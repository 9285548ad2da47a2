package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds a console logger on stderr, teed to a rotating JSON
// file when logFile is set.
func newLogger(verbose bool, logFile string) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	closeFn := func() {}
	if logFile != "" {
		rw := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxAge:     7,  // days
			MaxBackups: 3,  // files
			Compress:   true,
		}
		fileLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if verbose {
			fileLevel.SetLevel(zapcore.DebugLevel)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rw),
			fileLevel,
		))
		closeFn = func() { _ = rw.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}
