// Package interfaces 定义 QuantumGate 的公共接口
//
// 接口文件：
//   - access.go    - AccessManager 访问控制管理接口
//   - eventbus.go  - EventBus 事件总线
//   - metrics.go   - AdmissionRecorder 准入指标记录
//
// 实现位于 internal/core 下对应的组件包，通过 Fx 模块注入。
package interfaces
