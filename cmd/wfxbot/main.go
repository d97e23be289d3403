package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccastromar/wfx-bot/internal/app"
	"github.com/ccastromar/wfx-bot/internal/config"
	"github.com/ccastromar/wfx-bot/internal/logx"
)

// runner is the minimal interface our app must satisfy for running.
type runner interface{ Run(context.Context) error }

// appCtor is a constructor indirection to enable testing without launching the real app.
var appCtor = func(env *config.EnvVars) (runner, error) { return app.New(env) }

// loadEnv and fatalf are swapped in tests.
var (
	loadEnv = config.LoadEnv
	fatalf  = log.Fatalf
)

func run(ctx context.Context, dotenv, port string) {
	env, err := loadEnv(dotenv)
	if err != nil {
		fatalf("error loading configuration: %v", err)
		return
	}
	if port != "" {
		env.HTTPPort = port
	}
	if err := logx.Init(env.LogLevel, env.AppEnv); err != nil {
		fatalf("error initializing logger: %v", err)
		return
	}
	defer logx.Sync()

	a, err := appCtor(env)
	if err != nil {
		fatalf("error initializing app: %v", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		fatalf("error running app: %v", err)
		return
	}
}

func main() {
	// CLI flags
	dotenv := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	port := flag.String("port", "", "ops HTTP port (overrides HTTP_PORT)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	run(ctx, *dotenv, *port)
}
