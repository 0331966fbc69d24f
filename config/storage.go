package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 所有组件共用一个 BadgerDB 实例，通过键前缀隔离数据：
//
//	${DataDir}/
//	└── quantumgate.db/     # BadgerDB 主数据库
type StorageConfig struct {
	// DataDir 数据目录，默认 "./data"
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式，不写磁盘
	InMemory bool `json:"in_memory,omitempty"`

	// SyncWrites 每次写入都同步到磁盘
	SyncWrites bool `json:"sync_writes,omitempty"`
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir: "./data",
	}
}

// Validate 验证存储配置
func (c *StorageConfig) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return errors.New("data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "quantumgate.db")
}
