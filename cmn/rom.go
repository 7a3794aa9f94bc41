// Package cmn provides common constants, types, and utilities shared across
// the connection runtime.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package cmn

import "time"

// read-mostly and most-often-used knobs: refreshed a) at startup and b) upon
// receiving new configuration, so hot paths (retry decisions, ACM heartbeats,
// proxy-string rendering) never re-walk the full Configuration map.

type ToStringMode int

const (
	ToStringUnicode ToStringMode = iota // emit non-ASCII runes verbatim
	ToStringASCII                       // escape every non-ASCII byte
	ToStringCompat                      // ASCII plus a few historical exceptions
)

type readMostly struct {
	acmTimeout      time.Duration
	retryIntervals  []time.Duration // empty, or a single negative entry, disables retry
	classGraphDepth int
	messageSizeMax  int64
	toStringMode    ToStringMode
	verbosity       int
}

var Rom readMostly

func (rom *readMostly) init() {
	rom.acmTimeout = 60 * time.Second
	rom.classGraphDepth = 100
	rom.messageSizeMax = 1024 * 1024 // 1024 KiB, per MessageSizeMax default
	rom.toStringMode = ToStringUnicode
}

func (rom *readMostly) Set(cfg *Config) {
	rom.acmTimeout = cfg.ACM.Timeout
	rom.retryIntervals = cfg.RetryIntervals
	rom.classGraphDepth = cfg.ClassGraphDepthMax
	rom.messageSizeMax = cfg.MessageSizeMax
	rom.toStringMode = cfg.ToStringMode
	rom.verbosity = cfg.Log.Verbosity
}

func (rom *readMostly) ACMTimeout() time.Duration       { return rom.acmTimeout }
func (rom *readMostly) RetryIntervals() []time.Duration { return rom.retryIntervals }
func (rom *readMostly) ClassGraphDepthMax() int         { return rom.classGraphDepth }
func (rom *readMostly) MessageSizeMax() int64           { return rom.messageSizeMax }
func (rom *readMostly) ToStringMode() ToStringMode      { return rom.toStringMode }

// RetryDisabled reports whether retries are turned off process-wide
// (RetryIntervals configured as a single negative entry).
func (rom *readMostly) RetryDisabled() bool {
	return len(rom.retryIntervals) == 1 && rom.retryIntervals[0] < 0
}

func (rom *readMostly) FastV(verbosity int) bool { return rom.verbosity >= verbosity }

func init() { Rom.init() }
