// Package config loads server configuration from an optional YAML file
// overlaid with environment variables, the latter always winning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// HNSWConfig holds HNSW construction parameters (spec §4.7). They are
// loaded and overridable like every other setting, but no other package
// reads them: nonlinear.New builds every HNSW index with its own constants
// (M=16, efConstruction=200).
type HNSWConfig struct {
	M              int `yaml:"m"`
	EfConstruction int `yaml:"ef_construction"`
}

// ReplicationConfig toggles and configures the raft-backed replicated mode
// of spec §4.8.
type ReplicationConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

// SnapshotConfig configures periodic persistence (spec §6's "written
// periodically when dirty is set").
type SnapshotConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

// Config is the full set of server-wide settings.
type Config struct {
	ListenAddr  string            `yaml:"listen_addr"`
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
	HNSW        HNSWConfig        `yaml:"hnsw"`
	Replication ReplicationConfig `yaml:"replication"`
}

// Default returns the out-of-the-box configuration.
func Default() *Config {
	return &Config{
		ListenAddr: ":1369",
		Snapshot: SnapshotConfig{
			Path:     "ahnlich.snapshot",
			Interval: 5 * time.Minute,
		},
		HNSW: HNSWConfig{
			M:              16,
			EfConstruction: 200,
		},
		Replication: ReplicationConfig{
			Enabled: false,
			DataDir: "raft-data",
		},
	}
}

// Load reads the YAML file at path (if it exists — a missing file is not an
// error, matching the teacher's "return defaults if config file doesn't
// exist" behavior) and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through with defaults
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets AHNLICH_* environment variables win over both the
// defaults and anything the YAML file set, matching the teacher's
// NODE_*/COORDINATOR_* env-var configuration style.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AHNLICH_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("AHNLICH_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = v
	}
	if v := os.Getenv("AHNLICH_SNAPSHOT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Snapshot.Interval = d
		}
	}
	if v := os.Getenv("AHNLICH_HNSW_M"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HNSW.M = n
		}
	}
	if v := os.Getenv("AHNLICH_HNSW_EF_CONSTRUCTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HNSW.EfConstruction = n
		}
	}
	if v := os.Getenv("AHNLICH_REPLICATION_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Replication.Enabled = b
		}
	}
	if v := os.Getenv("AHNLICH_RAFT_DATA_DIR"); v != "" {
		c.Replication.DataDir = v
	}
}
