package quantumgate

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/doytsujin/QuantumGate/config"
	"github.com/doytsujin/QuantumGate/internal/core/access"
	"github.com/doytsujin/QuantumGate/internal/core/eventbus"
	"github.com/doytsujin/QuantumGate/internal/core/metrics"
	"github.com/doytsujin/QuantumGate/internal/core/peer"
	"github.com/doytsujin/QuantumGate/internal/core/storage"
	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. EventBus → Storage（持久化开启时）
//  2. Metrics（可选）
//  3. Access → Peer
func buildFxApp(cfg *config.Config, e *Engine, userOpts []fx.Option) (*fx.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
		eventbus.Module(),
	}

	if cfg.Access.Persist {
		modules = append(modules, storage.Module())
	}
	if cfg.Metrics.Enabled {
		modules = append(modules, metrics.Module())
	}

	modules = append(modules,
		access.Module(),
		peer.Module(),
	)
	modules = append(modules, userOpts...)

	modules = append(modules,
		fx.Invoke(injectEngineComponents(e)),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}

// engineInjectParams 引擎组件注入参数
type engineInjectParams struct {
	fx.In

	Access    *access.Manager
	Peers     *peer.Manager
	Bus       pkgif.EventBus
	Collector *metrics.Collector `optional:"true"`
}

func injectEngineComponents(e *Engine) func(engineInjectParams) {
	return func(p engineInjectParams) {
		e.access = p.Access
		e.peers = p.Peers
		e.bus = p.Bus
		e.collector = p.Collector
	}
}
