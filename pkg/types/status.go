package types

import "fmt"

// ============================================================================
//                              PeerStatus - 节点连接状态
// ============================================================================

// PeerStatus 节点连接状态
//
// 状态值只是标签，先后顺序由 statusRank 显式定义，
// 调整常量的声明顺序不会改变状态机语义。
type PeerStatus uint8

const (
	// StatusUnknown 未知
	StatusUnknown PeerStatus = 0
	// StatusInitialized 已初始化
	StatusInitialized PeerStatus = 1
	// StatusConnecting 正在连接（出站）
	StatusConnecting PeerStatus = 2
	// StatusAccepted 已接受（入站）
	StatusAccepted PeerStatus = 3
	// StatusConnected 已建立传输连接
	StatusConnected PeerStatus = 4
	// StatusMetaExchange 元数据交换
	StatusMetaExchange PeerStatus = 5
	// StatusPrimaryKeyExchange 主密钥交换
	StatusPrimaryKeyExchange PeerStatus = 6
	// StatusSecondaryKeyExchange 次密钥交换
	StatusSecondaryKeyExchange PeerStatus = 7
	// StatusAuthentication 身份认证
	StatusAuthentication PeerStatus = 8
	// StatusSessionInit 会话初始化
	StatusSessionInit PeerStatus = 9
	// StatusReady 握手完成，可用
	StatusReady PeerStatus = 10
	// StatusDisconnected 已断开（终态）
	StatusDisconnected PeerStatus = 11
)

// statusRank 状态的时间先后顺序，Disconnected 必须排在最后
var statusRank = map[PeerStatus]int{
	StatusUnknown:              0,
	StatusInitialized:          1,
	StatusConnecting:           2,
	StatusAccepted:             3,
	StatusConnected:            4,
	StatusMetaExchange:         5,
	StatusPrimaryKeyExchange:   6,
	StatusSecondaryKeyExchange: 7,
	StatusAuthentication:       8,
	StatusSessionInit:          9,
	StatusReady:                10,
	StatusDisconnected:         11,
}

var statusNames = map[PeerStatus]string{
	StatusUnknown:              "unknown",
	StatusInitialized:          "initialized",
	StatusConnecting:           "connecting",
	StatusAccepted:             "accepted",
	StatusConnected:            "connected",
	StatusMetaExchange:         "meta_exchange",
	StatusPrimaryKeyExchange:   "primary_key_exchange",
	StatusSecondaryKeyExchange: "secondary_key_exchange",
	StatusAuthentication:       "authentication",
	StatusSessionInit:          "session_init",
	StatusReady:                "ready",
	StatusDisconnected:         "disconnected",
}

// AllPeerStatuses 按时间顺序返回全部状态
func AllPeerStatuses() []PeerStatus {
	out := make([]PeerStatus, len(statusRank))
	for s, r := range statusRank {
		out[r] = s
	}
	return out
}

// String 返回状态的字符串表示
func (s PeerStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// IsValid 检查状态是否为已定义的值
func (s PeerStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank 返回状态在时间顺序中的位置（未定义状态返回 -1）
func (s PeerStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Before 当前状态是否早于 other
func (s PeerStatus) Before(other PeerStatus) bool {
	return s.IsValid() && other.IsValid() && s.Rank() < other.Rank()
}

// After 当前状态是否晚于 other
func (s PeerStatus) After(other PeerStatus) bool {
	return other.Before(s)
}

// IsTerminal 是否为终态
func (s PeerStatus) IsTerminal() bool {
	return s == StatusDisconnected
}

// CanTransitionTo 检查状态迁移是否合法
//
// 规则：
//   - 只能向后迁移（严格晚于当前状态）
//   - 任何非终态都可以直接迁移到 Disconnected
//   - Disconnected 之后不允许任何迁移
func (s PeerStatus) CanTransitionTo(next PeerStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == StatusDisconnected {
		return true
	}
	return s.Before(next)
}

// ValidateTransition 校验状态迁移，非法时返回 ErrInvalidStatusTransition
func (s PeerStatus) ValidateTransition(next PeerStatus) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, next)
}
