package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/api"
	"github.com/talkincode/productapi/internal/app"
	"github.com/talkincode/productapi/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	printver = flag.Bool("v", false, "print version")
)

var version = "dev"

func main() {
	flag.Parse()
	if *printver {
		fmt.Println(version)
		return
	}

	cfg, err := config.LoadConfig(*conffile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	application.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		zap.L().Error("startup failed", zap.String("state", application.State().String()), zap.Error(err))
		application.Release()
		os.Exit(1)
	}

	ws := webserver.NewWebServer(application)
	api.Init(ws, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(ws.Start)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down http server")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ws.Shutdown(sctx)
	})

	err = g.Wait()
	if err != nil {
		zap.L().Error("server exited", zap.Error(err))
	}
	application.Release()
	if err != nil {
		os.Exit(1)
	}
}
