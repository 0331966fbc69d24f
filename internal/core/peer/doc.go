// Package peer 实现节点连接表
//
// 每条连接对应一个 Peer，内部数据 Data 由读写锁保护，只能通过守卫或
// View / Update 回调访问。Manager 维护 LUID 到 Peer 的映射：
//
//	Add      准入判定（可选）→ 分配 LUID → 加入连接表 → 交给工作协程池
//	SetStatus 状态只能向后迁移，任何非终态都可直接迁移到 Disconnected
//	Remove   移出连接表并释放子网名额
//
// 工作协程池中每个 worker 持有一个 EventGroup，等待所属节点的数据就绪
// 事件以及共享的关闭事件。一个 worker 最多服务
// concurrency.MaximumNumberOfUserEvents-1 个节点，全部占满时自动扩容。
//
// 查询：FindPeers 对每个节点在读锁下执行 MatchQuery，只有 Ready
// 状态的节点可以匹配。
package peer
