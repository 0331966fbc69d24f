// Package types 定义 QuantumGate 核心的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
// 基础类型:
//   - enums.go   - Direction, AddressFamily, IPFilterType, ReputationUpdate, DenyReason
//   - status.go  - PeerStatus（带显式顺序表的连接状态机）
//   - peer.go    - PeerLUID, PeerUUID, ExtenderUUID, ProtocolVersion
//   - errors.go  - 公共错误定义
//
// 业务类型:
//   - query.go   - PeerQueryParameters 节点查询参数
//   - access.go  - IPReputation, IPSubnetLimit, IPFilter, AdmissionVerdict
//
// 事件类型:
//   - events.go  - 节点生命周期与准入事件
package types
