// Package access 实现连接准入控制
//
// Manager 组合四张表，对每次连接尝试给出准入判定：
//
//  1. IP 过滤规则（FilterStore）：命中阻止规则则拒绝
//  2. 入站尝试频率（AttemptLimiter）：超频则拒绝并轻微降低信誉
//  3. 地址信誉（ReputationStore）：分数不高于阈值则拒绝
//  4. 子网连接限制（SubnetLimitStore）：子网已满则拒绝，否则占用名额
//
// 判定允许时同时占用子网名额，连接结束后必须调用 ReleaseConnection。
// 拒绝是正常结果，不作为错误返回，只记录 Debug 日志、指标与事件。
//
// 配置了存储时，信誉、子网限制与过滤规则在修改时写入存储，启动时载入。
package access
