// Package main is a standalone object-adapter host: it loads a
// configuration file, wires the pool/connection stack, and activates one
// adapter endpoint until the process is signaled to stop.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glacio/corerpc/adapter"
	"github.com/glacio/corerpc/cmn"
	"github.com/glacio/corerpc/cmn/cos"
	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/pool"
	"github.com/glacio/corerpc/transport"
)

var (
	configPath string
	listenHost string
	listenPort int
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to a JSON configuration file; defaults baked in if empty")
	flag.StringVar(&listenHost, "h", "0.0.0.0", "adapter listen host")
	flag.IntVar(&listenPort, "p", 4061, "adapter listen port")
}

func main() {
	flag.Parse()
	defer nlog.Flush(true)

	cfg, err := loadConfig()
	if err != nil {
		cos.ExitLogf("config: %v", err)
	}
	cmn.Rom.Set(cfg)

	sel, err := transport.NewSelector()
	if err != nil {
		cos.ExitLogf("selector: %v", err)
	}
	p := pool.New(pool.Config{
		Name:           "corerpcd",
		Size:           cfg.ThreadPool.Size,
		SizeMax:        cfg.ThreadPool.SizeMax,
		SizeWarn:       cfg.ThreadPool.SizeWarn,
		ThreadIdleTime: cfg.ThreadPool.ThreadIdleTime,
	}, sel)

	connCfg := conn.Config{
		ACM:            conn.ACMConfig{Timeout: cfg.ACM.Timeout},
		MessageSizeMax: int(cfg.MessageSizeMax),
		BatchAutoflush: cfg.BatchAutoFlushSize,
	}
	ad := adapter.New("corerpcd", p, connCfg)

	ep := model.EndpointSpec{Transport: "tcp", Host: listenHost, Port: listenPort}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := ad.Activate(ctx, ep, nil); err != nil {
			nlog.Errorf("adapter: %v", err)
		}
	}()
	nlog.Infof("corerpcd listening on %s", ep)

	installSignalHandler(cancel, p)
}

func loadConfig() (*cmn.Config, error) {
	if configPath == "" {
		return cmn.Default(), nil
	}
	return cmn.Load(configPath)
}

func installSignalHandler(cancel context.CancelFunc, p *pool.Pool) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	nlog.Infof("corerpcd shutting down")
	cancel()
	time.Sleep(100 * time.Millisecond) // let in-flight Activate goroutines observe ctx.Done
	p.Stop()
}
