package metrics

import (
	"context"

	"go.uber.org/fx"

	"github.com/doytsujin/QuantumGate/config"
	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
)

// Config 指标配置
type Config struct {
	Enabled   bool
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "quantumgate",
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result Metrics 模块输出
//
// 禁用时 Collector 与 Recorder 均为 nil，使用方按可选依赖处理。
type Result struct {
	fx.Out

	Collector *Collector
	Recorder  pkgif.AdmissionRecorder
}

// Module 返回 metrics Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideCollector),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideCollector 按配置创建采集器
func ProvideCollector(p Params) Result {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		logger.Debug("指标采集已禁用")
		return Result{}
	}
	c := NewCollector(cfg.Namespace)
	return Result{Collector: c, Recorder: c}
}

type lifecycleInput struct {
	fx.In

	LC        fx.Lifecycle
	Collector *Collector
	Bus       pkgif.EventBus        `optional:"true"`
	Peers     pkgif.PeerStatsSource `optional:"true"`
}

func registerLifecycle(in lifecycleInput) {
	if in.Collector == nil {
		return
	}
	if in.Peers != nil {
		in.Collector.SetPeerSource(in.Peers)
	}
	if in.Bus == nil {
		return
	}
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return in.Collector.Start(in.Bus)
		},
		OnStop: func(_ context.Context) error {
			return in.Collector.Stop()
		},
	})
}
