package quantumgate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/doytsujin/QuantumGate/internal/core/access"
	"github.com/doytsujin/QuantumGate/internal/core/metrics"
	"github.com/doytsujin/QuantumGate/internal/core/peer"
	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
	"github.com/doytsujin/QuantumGate/pkg/lib/log"
)

var logger = log.Logger("quantumgate")

const (
	// startTimeout 启动超时
	startTimeout = 30 * time.Second

	// stopTimeout 停止超时
	stopTimeout = 15 * time.Second
)

// Engine QuantumGate 引擎
//
// 持有 Fx 应用及其提供的组件。Start 之前组件已经创建，但后台任务
// （工作协程、清理、持久化载入）尚未运行。
type Engine struct {
	app *fx.App

	access    *access.Manager
	peers     *peer.Manager
	bus       pkgif.EventBus
	collector *metrics.Collector

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建引擎
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	e := &Engine{}
	app, err := buildFxApp(o.config, e, o.userFxOptions)
	if err != nil {
		return nil, err
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	e.app = app
	return e, nil
}

// Start 启动引擎
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := e.app.Start(startCtx); err != nil {
		logger.Error("引擎启动失败", "error", err)
		return fmt.Errorf("start engine: %w", err)
	}
	e.started = true
	logger.Info("引擎已启动")
	return nil
}

// Stop 停止引擎，之后不能再次启动
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if !e.started {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	e.started = false
	if err := e.app.Stop(stopCtx); err != nil {
		logger.Warn("引擎停止出错", "error", err)
		return fmt.Errorf("stop engine: %w", err)
	}
	logger.Info("引擎已停止")
	return nil
}

// Access 返回访问控制管理接口
func (e *Engine) Access() pkgif.AccessManager {
	return e.access
}

// Peers 返回节点连接表
func (e *Engine) Peers() *peer.Manager {
	return e.peers
}

// EventBus 返回事件总线
func (e *Engine) EventBus() pkgif.EventBus {
	return e.bus
}

// Metrics 返回指标采集器，未启用时为 nil
func (e *Engine) Metrics() *metrics.Collector {
	return e.collector
}

// IsStarted 返回引擎是否在运行
func (e *Engine) IsStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}
