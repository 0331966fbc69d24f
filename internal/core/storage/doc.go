// Package storage 提供统一的持久化存储服务
//
// 基于 BadgerDB，所有组件共享一个引擎实例，通过键前缀隔离数据：
//
//	前缀   | 模块    | 说明
//	-------|---------|------------------
//	a/r/   | access  | 地址信誉
//	a/s/   | access  | 子网连接限制
//	a/f/   | access  | IP 过滤规则
//
// 使用 Fx：
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    storage.Module(),
//	)
//
// 手动创建：
//
//	eng, err := storage.NewEngine(storage.DefaultConfig().WithPath("/data/qg.db"))
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//	access := storage.NewKVStore(eng, []byte("a/"))
package storage
