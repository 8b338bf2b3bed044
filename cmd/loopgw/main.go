package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hemobench/mockloop.go/pkg/gateway"
)

var configPath string

func init() {
	gateway.SetupFlags()
	flag.StringVar(&configPath, "config", configPath, "YAML config file; flags win over it.")
}

func main() {
	flag.Parse()

	conf, err := gateway.NewConfig(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gateway.New(conf).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalln(err)
	}
}
