package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tofunori/farewatch/config"
)

func main() {
	once := flag.Bool("once", false, "run a single check cycle and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunFareMonitor(ctx, cfg, defaultMonitorFactories(), *once); err != nil && err != context.Canceled {
		panic(err)
	}
}
