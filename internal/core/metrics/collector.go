package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
	"github.com/doytsujin/QuantumGate/pkg/lib/log"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

var logger = log.Logger("core/metrics")

// Collector QuantumGate 指标采集器
type Collector struct {
	registry *prometheus.Registry

	admissions  *prometheus.CounterVec
	peers       *peerGauge
	transitions *prometheus.CounterVec

	subs   []pkgif.Subscription
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector 创建采集器并在独立注册表中注册所有指标
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admissions_total",
		Help:      "Connection admission decisions by direction, verdict and reason.",
	}, []string{"direction", "verdict", "reason"})

	peers := &peerGauge{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "peers"),
			"Number of tracked peers by status.",
			[]string{"status"}, nil,
		),
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "peer_transitions_total",
		Help:      "Peer status transitions by target status.",
	}, []string{"to"})

	reg.MustRegister(admissions, peers, transitions)

	return &Collector{
		registry:    reg,
		admissions:  admissions,
		peers:       peers,
		transitions: transitions,
	}
}

// Registry 返回采集器使用的注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回 Prometheus 文本格式的 HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetPeerSource 设置节点数量来源，nil 表示不再输出节点数量
func (c *Collector) SetPeerSource(src pkgif.PeerStatsSource) {
	c.peers.mu.Lock()
	c.peers.src = src
	c.peers.mu.Unlock()
}

// Admissions 返回指定标签的准入计数器
func (c *Collector) Admissions(direction, verdict, reason string) prometheus.Counter {
	return c.admissions.WithLabelValues(direction, verdict, reason)
}

// RecordAdmission 实现 interfaces.AdmissionRecorder
func (c *Collector) RecordAdmission(dir types.Direction, v types.AdmissionVerdict) {
	verdict := "allowed"
	if !v.Allowed {
		verdict = "denied"
	}
	c.admissions.WithLabelValues(dir.String(), verdict, v.Reason.String()).Inc()
}

// Transitions 返回迁移到指定状态的计数器
func (c *Collector) Transitions(to types.PeerStatus) prometheus.Counter {
	return c.transitions.WithLabelValues(to.String())
}

// ============================================================================
//                              节点数量
// ============================================================================

// peerGauge 采集时从连接表读取各状态节点数
//
// 所有状态都输出，未出现的状态为 0。
type peerGauge struct {
	desc *prometheus.Desc

	mu  sync.RWMutex
	src pkgif.PeerStatsSource
}

func (g *peerGauge) Describe(ch chan<- *prometheus.Desc) {
	ch <- g.desc
}

func (g *peerGauge) Collect(ch chan<- prometheus.Metric) {
	g.mu.RLock()
	src := g.src
	g.mu.RUnlock()

	var counts map[types.PeerStatus]int
	if src != nil {
		counts = src.Stats()
	}
	for _, s := range types.AllPeerStatuses() {
		ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, float64(counts[s]), s.String())
	}
}

var (
	_ pkgif.AdmissionRecorder = (*Collector)(nil)
	_ prometheus.Collector    = (*peerGauge)(nil)
)
