// Package quantumgate 提供 QuantumGate 连接准入与同步核心
//
// # 核心概念
//
//   - AccessManager: 地址信誉、子网连接限制与 IP 过滤，给出连接准入判定
//   - peer.Manager: 节点连接表，状态机与查询匹配
//   - EventGroup: 有界的多信号等待对象，驱动节点工作协程
//
// # 快速开始
//
//	engine, err := quantumgate.New(
//	    quantumgate.WithConfigFile("quantumgate.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop(ctx)
//
//	// 管理接口
//	am := engine.Access()
//	am.AddIPSubnetLimit("IPv4", "/24", 2)
//
//	// 接入连接
//	p, err := engine.Peers().Add(types.DirInbound, local, remote)
//
// # 组件结构
//
//	┌────────────────────────────────────────────────────┐
//	│  Engine            quantumgate.New()               │
//	├────────────────────────────────────────────────────┤
//	│  peer.Manager      连接表 / 工作协程 / 查询          │
//	│  access.Manager    信誉 / 子网限制 / IP 过滤         │
//	├────────────────────────────────────────────────────┤
//	│  eventbus  metrics  storage(badger)  concurrency   │
//	└────────────────────────────────────────────────────┘
package quantumgate
