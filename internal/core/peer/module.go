package peer

import (
	"context"

	"go.uber.org/fx"

	"github.com/doytsujin/QuantumGate/config"
	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
)

// Params Peer 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config      `optional:"true"`
	Access     pkgif.AccessManager `optional:"true"`
	Bus        pkgif.EventBus      `optional:"true"`
}

// Result Peer 模块输出
type Result struct {
	fx.Out

	Manager *Manager
	Stats   pkgif.PeerStatsSource
}

// Module 返回 Peer Fx 模块
func Module() fx.Option {
	return fx.Module("peer",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 按统一配置创建节点管理器
func ProvideManager(p Params) (Result, error) {
	var opts []Option
	if p.Access != nil {
		opts = append(opts, WithAccessManager(p.Access))
	}
	if p.Bus != nil {
		opts = append(opts, WithEventBus(p.Bus))
	}
	m, err := NewManager(ConfigFromUnified(p.UnifiedCfg), opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Manager: m, Stats: m}, nil
}

func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: m.Start,
		OnStop: func(_ context.Context) error {
			return m.Stop()
		},
	})
}
