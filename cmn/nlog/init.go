/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	toStderr     bool
	alsoToStderr bool
	logDir       string
	aisrole      string // component role embedded in the log file name (e.g. "proxy", "target")
	title        string
	host, _      = os.Hostname()
	pid          = os.Getpid()

	nlogs   [3]*nlog
	pool    sync.Pool
	onceInitFiles sync.Once

	redactFnames = map[string]struct{}{} // source file stems never echoed into the line header

	sevText = [...]string{sevInfo: "I", sevWarn: "W", sevErr: "E"}
)

func assert(cond bool, args ...any) {
	if !cond {
		panic(fmt.Sprint(append([]any{"nlog assertion failed: "}, args...)...))
	}
}

func sname() string {
	if aisrole != "" {
		return aisrole
	}
	return "corerpc"
}

func initFiles() {
	nlogs[sevInfo] = newNlog(sevInfo)
	nlogs[sevWarn] = newNlog(sevWarn) // not flushed to its own file; kept for symmetry
	nlogs[sevErr] = newNlog(sevErr)
	if toStderr || logDir == "" {
		return
	}
	now := time.Now()
	for _, sev := range []severity{sevInfo, sevErr} {
		f, _, err := fcreate(sevText[sev], now)
		if err != nil {
			alsoToStderr = true
			continue
		}
		nlogs[sev].file = f
	}
}

// fcreate creates (or appends to) the log file for a given severity tag under logDir.
func fcreate(tag string, t time.Time) (*os.File, string, error) {
	if logDir == "" {
		return nil, "", os.ErrInvalid
	}
	name, link := logfname(tag, t)
	path := logDir + string(os.PathSeparator) + name
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", err
	}
	linkPath := logDir + string(os.PathSeparator) + link
	os.Remove(linkPath)
	os.Symlink(name, linkPath)
	return f, path, nil
}
