// Package metrics 提供 Prometheus 指标
//
// Collector 使用独立的 prometheus.Registry，不污染全局注册表：
//
//	quantumgate_admissions_total{direction,verdict,reason}  准入判定计数
//	quantumgate_peers{status}                               各状态的存活节点数
//	quantumgate_peer_transitions_total{to}                  状态迁移计数
//
// 准入指标由准入管理器通过 interfaces.AdmissionRecorder 直接写入；
// 节点数量在采集时从 interfaces.PeerStatsSource 读取，状态迁移计数通过订阅
// 事件总线上的状态变化事件维护。
//
//	c := metrics.NewCollector("quantumgate")
//	c.SetPeerSource(peers)
//	if err := c.Start(bus); err != nil {
//	    return err
//	}
//	defer c.Stop()
//	http.Handle("/metrics", c.Handler())
package metrics
