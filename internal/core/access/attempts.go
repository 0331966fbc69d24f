package access

import (
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

// AttemptLimiter 按地址限制入站连接尝试频率
//
// 每个地址一个令牌桶：每个 Interval 补充 MaxPerInterval 个令牌，
// 桶容量也是 MaxPerInterval。空闲超过 IdleTimeout 的桶被后台清理。
type AttemptLimiter struct {
	cfg   AttemptsConfig
	clock clock.Clock

	mu       sync.Mutex
	limiters map[netip.Addr]*attemptEntry

	closeCh   chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

type attemptEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAttemptLimiter 创建尝试频率限制器
func NewAttemptLimiter(cfg AttemptsConfig, clk clock.Clock) *AttemptLimiter {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	return &AttemptLimiter{
		cfg:      cfg,
		clock:    clk,
		limiters: make(map[netip.Addr]*attemptEntry),
		closeCh:  make(chan struct{}),
	}
}

// Allow 记录一次尝试，超过频率时返回 false
func (l *AttemptLimiter) Allow(addr netip.Addr) bool {
	if !l.cfg.Enabled {
		return true
	}
	addr, ok := normalizeAddr(addr)
	if !ok {
		return false
	}

	now := l.clock.Now()

	l.mu.Lock()
	e, ok := l.limiters[addr]
	if !ok {
		every := rate.Every(l.cfg.Interval / time.Duration(l.cfg.MaxPerInterval))
		e = &attemptEntry{limiter: rate.NewLimiter(every, l.cfg.MaxPerInterval)}
		l.limiters[addr] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len 返回跟踪的地址数量
func (l *AttemptLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Start 启动清理协程
func (l *AttemptLimiter) Start() {
	if !l.cfg.Enabled {
		return
	}
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go l.cleanupLoop()
	})
}

func (l *AttemptLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := l.clock.Ticker(l.cfg.IdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-l.closeCh:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup 清理空闲的令牌桶
func (l *AttemptLimiter) cleanup() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for addr, e := range l.limiters {
		if now.Sub(e.lastSeen) >= l.cfg.IdleTimeout {
			delete(l.limiters, addr)
			n++
		}
	}
	if n > 0 {
		logger.Debug("清理空闲的尝试限速器", "count", n)
	}
	return n
}

// Close 停止清理协程
func (l *AttemptLimiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.closeCh)
		l.wg.Wait()
	})
	return nil
}
