package eventbus

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
)

// Result Fx 模块输出
type Result struct {
	fx.Out

	EventBus pkgif.EventBus
}

// Module 返回事件总线 Fx 模块
//
// OnStop 关闭总线，所有订阅通道随之关闭。
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventBus 提供 EventBus 实例
func ProvideEventBus() Result {
	return Result{EventBus: NewBus()}
}

func registerLifecycle(lc fx.Lifecycle, bus pkgif.EventBus) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if b, ok := bus.(*Bus); ok {
				return b.Close()
			}
			return nil
		},
	})
}
