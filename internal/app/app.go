package app

import (
	"context"
	"os"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Application struct {
	appConfig *config.AppConfig
	store     store.Store
	sched     *cron.Cron
	readiness Readiness

	healthMu sync.RWMutex
	health   HealthStatus
}

// Ensure Application implements all interfaces
var (
	_ StoreProvider     = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ ReadinessProvider = (*Application)(nil)
	_ HealthProvider    = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

// Store returns the collection handle; nil until Start has connected.
func (a *Application) Store() store.Store {
	return a.store
}

// OverrideStore installs a pre-built store that Start will use instead of
// opening one from configuration (used in tests).
func (a *Application) OverrideStore(s store.Store) {
	a.store = s
}

func (a *Application) State() State {
	return a.readiness.State()
}

func (a *Application) IsReady() bool {
	return a.readiness.IsReady()
}

// Init configures the timezone and the global zap logger.
func (a *Application) Init() {
	cfg := a.appConfig
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// Start runs the startup sequence: connect, ensure the collection, then mark
// the process ready. Any failure leaves the state Failed; there is no retry.
func (a *Application) Start(ctx context.Context) error {
	dbCfg := a.appConfig.Database
	if a.store == nil {
		if err := dbCfg.RequireLocator(); err != nil {
			a.readiness.fail()
			return err
		}
	}

	if err := a.readiness.transition(Disconnected, Connecting); err != nil {
		return err
	}
	zap.L().Info("connecting to database",
		zap.String("type", dbCfg.Type),
		zap.String("database", dbCfg.Name),
		zap.String("collection", dbCfg.Collection))

	if dbCfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbCfg.ConnectTimeout)
		defer cancel()
	}

	if a.store == nil {
		st, err := store.Open(ctx, dbCfg)
		if err != nil {
			a.readiness.fail()
			return errors.Wrap(err, "opening store")
		}
		a.store = st
	}

	if err := a.store.EnsureCollection(ctx); err != nil {
		a.readiness.fail()
		return errors.Wrap(err, "ensuring collection")
	}

	if err := a.readiness.transition(Connecting, Ready); err != nil {
		return err
	}
	a.recordHealth(nil)
	zap.L().Info("database ready", zap.String("type", dbCfg.Type), zap.String("collection", dbCfg.Collection))

	a.initJob()
	return nil
}

// Release stops background jobs, closes the store and flushes the logger.
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.Close(ctx); err != nil {
			zap.L().Warn("failed to close store", zap.Error(err))
		}
	}
	_ = zap.L().Sync()
}
