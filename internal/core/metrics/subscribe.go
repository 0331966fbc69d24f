package metrics

import (
	"errors"

	"go.uber.org/multierr"

	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

// ErrAlreadyStarted 采集器已启动
var ErrAlreadyStarted = errors.New("metrics: collector already started")

// Start 订阅节点状态变化事件并在后台累计迁移计数
func (c *Collector) Start(bus pkgif.EventBus) error {
	if c.stopCh != nil {
		return ErrAlreadyStarted
	}

	// 事件突发时避免丢失
	sub, err := bus.Subscribe(new(types.EvtPeerStatusChanged), pkgif.BufSize(256))
	if err != nil {
		return err
	}

	c.subs = []pkgif.Subscription{sub}
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.consume(sub)
	return nil
}

// Stop 取消订阅并等待后台协程退出
func (c *Collector) Stop() error {
	if c.stopCh == nil {
		return nil
	}
	close(c.stopCh)

	var err error
	for _, s := range c.subs {
		err = multierr.Append(err, s.Close())
	}
	c.wg.Wait()
	c.subs = nil
	c.stopCh = nil
	return err
}

func (c *Collector) consume(sub pkgif.Subscription) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		case evt, ok := <-sub.Out():
			if !ok {
				return
			}
			c.handle(evt)
		}
	}
}

func (c *Collector) handle(evt interface{}) {
	switch e := evt.(type) {
	case types.EvtPeerStatusChanged:
		c.transitions.WithLabelValues(e.To.String()).Inc()
	case *types.EvtPeerStatusChanged:
		c.transitions.WithLabelValues(e.To.String()).Inc()
	default:
		logger.Debug("忽略未知事件", "type", evt)
	}
}
