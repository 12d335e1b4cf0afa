package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aigustalabs/switchboard/internal/bridge"
	"github.com/aigustalabs/switchboard/internal/bus"
	"github.com/aigustalabs/switchboard/internal/config"
	"github.com/aigustalabs/switchboard/internal/dispatch"
	"github.com/aigustalabs/switchboard/internal/gateway"
	"github.com/aigustalabs/switchboard/internal/logging"
	"github.com/aigustalabs/switchboard/internal/notify"
	"github.com/aigustalabs/switchboard/internal/protocol"
	"github.com/aigustalabs/switchboard/internal/view"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved invocation options passed to the fx module.
type Params struct {
	ConfigPath string
}

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideView,
			provideNotifier,
			provideDispatcher,
			provideSupervisor,
			provideGateway,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Load(p.ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		// First run: persist the defaults so they are visible and editable.
		cfg = config.Default()
		if saveErr := config.Save(p.ConfigPath, cfg); saveErr != nil {
			return nil, fmt.Errorf("write default config: %w", saveErr)
		}
		return cfg, nil
	}
	return cfg, err
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogPath)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideView(b *bus.Bus) *view.View {
	return view.New(b)
}

func provideNotifier(b *bus.Bus, logger *zap.Logger) notify.Notifier {
	return notify.Multi(
		notify.NewBusNotifier(b),
		notify.NewLogNotifier(logger),
	)
}

func provideDispatcher(v *view.View, n notify.Notifier, logger *zap.Logger) *dispatch.Dispatcher {
	return dispatch.New(v, n, logger)
}

func provideSupervisor(cfg *config.Config, d *dispatch.Dispatcher, logger *zap.Logger) *bridge.Supervisor {
	return bridge.NewSupervisor(cfg.BridgeConfigs(), d, logger)
}

func provideGateway(sup *bridge.Supervisor, logger *zap.Logger) *gateway.Gateway {
	return gateway.New(sup, logger)
}

func registerLifecycle(lc fx.Lifecycle, sup *bridge.Supervisor, gw *gateway.Gateway, logger *zap.Logger) {
	// Prime a freshly connected bridge: ask for its status and the chat
	// snapshot. Both are fire-and-forget; the answers come back as
	// ordinary inbound events.
	sup.OnBridgeConnect(func(service protocol.ServiceID) {
		ctx := context.Background()
		if err := gw.RequestStatus(ctx, service); err != nil {
			logger.Warn("initial status request failed",
				zap.String("service", service.String()), zap.Error(err))
		}
		if err := gw.RequestChats(ctx, service); err != nil {
			logger.Warn("initial chats request failed",
				zap.String("service", service.String()), zap.Error(err))
		}
	})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sup.Start(context.Background())
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			sup.Stop()
			logger.Info("daemon stopped")
			return nil
		},
	})
}
