package interfaces

import "github.com/doytsujin/QuantumGate/pkg/types"

// AdmissionRecorder 记录准入判定
//
// 由指标组件实现，准入管理器在每次判定后调用。实现必须是并发安全且不阻塞的。
type AdmissionRecorder interface {
	RecordAdmission(dir types.Direction, verdict types.AdmissionVerdict)
}

// PeerStatsSource 提供按状态统计的存活节点数量
//
// 由节点管理器实现，指标组件在每次采集时读取，连接表是节点数量的唯一来源。
type PeerStatsSource interface {
	Stats() map[types.PeerStatus]int
}
