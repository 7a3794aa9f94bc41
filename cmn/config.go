// Package cmn provides common constants, types, and utilities shared across
// the connection runtime.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package cmn

import (
	"os"
	"runtime"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Config is the in-process form of the property file described in §6 of the
// spec. It is loaded once at startup and replaced wholesale (never mutated
// in place) on reconfiguration; readers that need a handful of hot fields
// should go through Rom rather than dereferencing a *Config directly.
type (
	ThreadPoolConfig struct {
		Size          int           `json:"size"`
		SizeMax       int           `json:"sizeMax"`
		SizeWarn      int           `json:"sizeWarn"`
		ThreadIdleTime time.Duration `json:"threadIdleTime"`
		StackSize     int           `json:"stackSize"`
		Serialize     bool          `json:"serialize"`
	}
	ACMConfig struct {
		Timeout time.Duration `json:"timeout"`
	}
	ResolverConfig struct {
		CacheTTL time.Duration `json:"cacheTTL"`
		Workers  int           `json:"workers"`
	}
	ConnectionConfig struct {
		DuplicateGuardCapacity uint `json:"duplicateGuardCapacity"`
	}
	LogConfig struct {
		Dir       string `json:"dir"`
		Verbosity int    `json:"verbosity"`
	}
	MetricsConfig struct {
		Enabled bool `json:"enabled"`
	}

	Config struct {
		ThreadPool             ThreadPoolConfig `json:"threadPool"`
		ACM                    ACMConfig        `json:"acm"`
		Resolver               ResolverConfig   `json:"resolver"`
		Connection             ConnectionConfig `json:"connection"`
		Log                    LogConfig        `json:"log"`
		Metrics                MetricsConfig    `json:"metrics"`
		MessageSizeMax         int64            `json:"messageSizeMax"`      // bytes
		BatchAutoFlushSize     int              `json:"batchAutoFlushSize"`  // bytes
		ClassGraphDepthMax     int              `json:"classGraphDepthMax"`
		RetryIntervalsMillis   []int64          `json:"retryIntervals"`      // -1 disables retry
		IPv4                   bool             `json:"ipv4"`
		IPv6                   bool             `json:"ipv6"`
		PreferIPv6Address      bool             `json:"preferIPv6Address"`
		DefaultEncodingVersion string           `json:"defaultEncodingVersion"` // "1.0" | "1.1"
		ToStringMode           ToStringMode     `json:"toStringMode"`

		RetryIntervals []time.Duration `json:"-"` // derived from RetryIntervalsMillis
	}
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default returns a Config populated with every default named in §6.
func Default() *Config {
	return &Config{
		ThreadPool: ThreadPoolConfig{
			Size:           1,
			SizeMax:        runtime.NumCPU(),
			ThreadIdleTime: 60 * time.Second,
		},
		ACM:                    ACMConfig{Timeout: 60 * time.Second},
		Resolver:               ResolverConfig{CacheTTL: 60 * time.Second, Workers: 1},
		Connection:             ConnectionConfig{DuplicateGuardCapacity: 4096},
		MessageSizeMax:         1024 * 1024,
		ClassGraphDepthMax:     100,
		DefaultEncodingVersion: "1.1",
		IPv4:                   true,
		IPv6:                   true,
	}
}

// Load reads a JSON property file into a fresh Config seeded with defaults,
// then derives the fields that are easier to operate on in native Go form
// (e.g. time.Duration retry intervals from a millisecond list).
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	cfg.deriveRetryIntervals()
	return cfg, nil
}

func (cfg *Config) deriveRetryIntervals() {
	cfg.RetryIntervals = cfg.RetryIntervals[:0]
	for _, ms := range cfg.RetryIntervalsMillis {
		if ms < 0 {
			cfg.RetryIntervals = []time.Duration{-1}
			return
		}
		cfg.RetryIntervals = append(cfg.RetryIntervals, time.Duration(ms)*time.Millisecond)
	}
}
