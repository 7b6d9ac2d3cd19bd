package logger

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "poliventas"

var (
	global   atomic.Pointer[zap.Logger]
	lazyInit sync.Once
)

// New arma un logger JSON a stdout en producción y de consola en el resto.
func New(env string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return cfg.Build(zap.AddCaller(), zap.Fields(zap.String("service", serviceName)))
}

// Init reemplaza el logger global.
func Init(env string) {
	l, err := New(env)
	if err != nil {
		panic(err)
	}
	global.Store(l)
}

// L devuelve el logger global. Sin Init previo se arma una sola vez con APP_ENV.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	lazyInit.Do(func() {
		l, err := New(os.Getenv("APP_ENV"))
		if err != nil {
			l = zap.NewNop()
		}
		global.CompareAndSwap(nil, l)
	})
	return global.Load()
}

func Sync() {
	if l := global.Load(); l != nil {
		_ = l.Sync()
	}
}
