package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var sugar *zap.SugaredLogger

func init() {
	// Usable before Init for tests and tooling.
	l, _ := zap.NewDevelopment()
	sugar = l.Sugar()
}

// Init configures the process logger. When file is non-empty, logs rotate
// through lumberjack; otherwise they go to stderr.
func Init(file string) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var sink zapcore.WriteSyncer
	if file != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zap.InfoLevel)
	sugar = zap.New(core, zap.AddCaller()).Sugar()
}

// S returns the process sugared logger.
func S() *zap.SugaredLogger { return sugar }

// Sync flushes buffered entries; call on shutdown.
func Sync() { _ = sugar.Sync() }
