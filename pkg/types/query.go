package types

// ============================================================================
//                              PeerQueryParameters - 节点查询参数
// ============================================================================

// AuthenticationOption 认证过滤条件
type AuthenticationOption int

const (
	// AuthenticationAny 不限
	AuthenticationAny AuthenticationOption = iota
	// AuthenticationAuthenticated 仅已认证
	AuthenticationAuthenticated
	// AuthenticationNotAuthenticated 仅未认证
	AuthenticationNotAuthenticated
)

// RelayOption 中继过滤条件
type RelayOption int

const (
	// RelayAny 不限
	RelayAny RelayOption = iota
	// RelayRelayed 仅中继连接
	RelayRelayed
	// RelayNotRelayed 仅直连
	RelayNotRelayed
)

// ConnectionOption 方向过滤条件
type ConnectionOption int

const (
	// ConnectionAny 不限
	ConnectionAny ConnectionOption = iota
	// ConnectionInbound 仅入站
	ConnectionInbound
	// ConnectionOutbound 仅出站
	ConnectionOutbound
)

// ExtenderIncludeOption 扩展集合匹配模式
type ExtenderIncludeOption int

const (
	// IncludeAllOf 必须包含全部指定扩展
	IncludeAllOf ExtenderIncludeOption = iota
	// IncludeOneOf 至少包含其中一个
	IncludeOneOf
	// IncludeNoneOf 不能包含其中任何一个
	IncludeNoneOf
)

// String 返回匹配模式的字符串表示
func (o ExtenderIncludeOption) String() string {
	switch o {
	case IncludeAllOf:
		return "all_of"
	case IncludeOneOf:
		return "one_of"
	case IncludeNoneOf:
		return "none_of"
	default:
		return "unknown"
	}
}

// ExtenderQuery 扩展过滤条件
//
// UUIDs 为空时过滤条件总是通过，与 Include 无关。
type ExtenderQuery struct {
	UUIDs   []ExtenderUUID
	Include ExtenderIncludeOption
}

// PeerQueryParameters 节点查询参数
//
// 零值表示"任意已就绪节点"。
type PeerQueryParameters struct {
	// Authentication 认证过滤
	Authentication AuthenticationOption

	// Relays 中继过滤
	Relays RelayOption

	// Connections 方向过滤
	Connections ConnectionOption

	// Extenders 扩展过滤
	Extenders ExtenderQuery
}
