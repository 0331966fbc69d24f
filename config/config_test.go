package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 默认配置有效
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	r := cfg.Access.Reputation
	assert.Equal(t, int16(0), r.DefaultScore)
	assert.Equal(t, int16(-3000), r.MinimumScore)
	assert.Equal(t, int16(100), r.MaximumScore)
	assert.Equal(t, int16(-1000), r.RejectThreshold)
}

func TestReputationConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ReputationConfig)
	}{
		{"min above max", func(c *ReputationConfig) { c.MinimumScore = 200 }},
		{"default out of range", func(c *ReputationConfig) { c.DefaultScore = 101 }},
		{"threshold above default", func(c *ReputationConfig) { c.RejectThreshold = 0 }},
		{"threshold below min", func(c *ReputationConfig) { c.RejectThreshold = -4000 }},
		{"negative recovery", func(c *ReputationConfig) { c.RecoveryStep = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultReputationConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestAccessConfig_Validate(t *testing.T) {
	t.Run("BadFilterType", func(t *testing.T) {
		c := DefaultAccessConfig()
		c.Filters = []FilterEntry{{CIDR: "10.0.0.0/8", Type: "maybe"}}
		assert.Error(t, c.Validate())
	})

	t.Run("NegativeLimit", func(t *testing.T) {
		c := DefaultAccessConfig()
		c.SubnetLimits = []SubnetLimitEntry{{Family: "IPv4", CIDRLeadingBits: "/24", MaximumConnections: -1}}
		assert.Error(t, c.Validate())
	})

	t.Run("AttemptsDisabled", func(t *testing.T) {
		c := DefaultAccessConfig()
		c.Attempts = AttemptsConfig{Enabled: false}
		assert.NoError(t, c.Validate())
	})
}

func TestPeerConfig_Validate(t *testing.T) {
	c := DefaultPeerConfig()
	assert.NoError(t, c.Validate())

	c.Workers = 0
	assert.Error(t, c.Validate())
}

func TestStorageConfig(t *testing.T) {
	c := StorageConfig{}
	assert.Error(t, c.Validate())

	c.InMemory = true
	assert.NoError(t, c.Validate())

	c = StorageConfig{DataDir: "/tmp/qg"}
	assert.Equal(t, filepath.Join("/tmp/qg", "quantumgate.db"), c.DBPath())
}

// TestFromJSON 未出现的字段保留默认值
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"access": {
			"reputation": {"reject_threshold": -500, "minimum_score": -3000, "maximum_score": 100, "recovery_interval": "30s"},
			"subnet_limits": [{"family": "IPv4", "cidr_leading_bits": "/24", "maximum_connections": 2}]
		},
		"storage": {"in_memory": true}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, int16(-500), cfg.Access.Reputation.RejectThreshold)
	assert.Equal(t, 30*time.Second, cfg.Access.Reputation.RecoveryInterval.Duration())
	assert.Equal(t, int16(20), cfg.Access.Reputation.ImproveMinimal)
	require.Len(t, cfg.Access.SubnetLimits, 1)
	assert.Equal(t, 2, cfg.Access.SubnetLimits[0].MaximumConnections)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, 2, cfg.Peer.Workers)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"peer": {"workers": 0}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"metrics": {"enabled": false}}`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Enabled)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(5 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"5s"`, string(out))
}

func TestCloneConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Access.Filters = []FilterEntry{{CIDR: "10.0.0.0/8", Type: "blocked"}}

	clone := CloneConfig(cfg)
	clone.Access.Filters[0].Type = "allowed"
	assert.Equal(t, "blocked", cfg.Access.Filters[0].Type)
	assert.Nil(t, CloneConfig(nil))
}
