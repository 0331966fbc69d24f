package access

import (
	"context"

	"go.uber.org/fx"

	"github.com/doytsujin/QuantumGate/config"
	"github.com/doytsujin/QuantumGate/internal/core/storage/engine"
	"github.com/doytsujin/QuantumGate/internal/core/storage/kv"
	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
)

// storePrefix access 在共享存储中的键前缀
var storePrefix = []byte("a/")

// Params Access 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config          `optional:"true"`
	Engine     engine.Engine           `optional:"true"`
	Bus        pkgif.EventBus          `optional:"true"`
	Recorder   pkgif.AdmissionRecorder `optional:"true"`
}

// Result Access 模块输出
type Result struct {
	fx.Out

	Manager       *Manager
	AccessManager pkgif.AccessManager
}

// Module 返回 Access Fx 模块
//
// OnStart 载入持久化数据，OnStop 停止后台清理。
func Module() fx.Option {
	return fx.Module("access",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 按统一配置创建管理器
func ProvideManager(p Params) (Result, error) {
	cfg, err := ConfigFromUnified(p.UnifiedCfg)
	if err != nil {
		return Result{}, err
	}

	opts := []Option{WithEventBus(p.Bus)}
	if p.Recorder != nil {
		opts = append(opts, WithRecorder(p.Recorder))
	}
	if p.Engine != nil && cfg.Persist {
		opts = append(opts, WithStore(kv.New(p.Engine, storePrefix)))
	}

	m, err := NewManager(cfg, opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Manager: m, AccessManager: m}, nil
}

func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: m.Start,
		OnStop: func(_ context.Context) error {
			return m.Close()
		},
	})
}
