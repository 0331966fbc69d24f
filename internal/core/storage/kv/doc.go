// Package kv 提供带前缀隔离的 KV 存储
//
// QuantumGate 使用以下前缀约定：
//
//   - a/r/ - 地址信誉
//   - a/s/ - 子网连接限制
//   - a/f/ - IP 过滤规则
//
// 子存储的键自动带上父前缀：
//
//	access := kv.New(eng, []byte("a/"))
//	reputations := access.SubStore([]byte("r/"))
//	reputations.PutJSON([]byte("192.0.2.1"), rep) // 实际键: a/r/192.0.2.1
package kv
