package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/app/background"
	"github.com/LavaJover/shvark-exchange-form/internal/app/setup"
	"github.com/LavaJover/shvark-exchange-form/internal/config"
	"github.com/LavaJover/shvark-exchange-form/internal/delivery/cli"
	"github.com/LavaJover/shvark-exchange-form/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-exchange-form/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup happens before os.Exit.
func run() int {
	repl := flag.Bool("repl", false, "run the form in the terminal instead of serving HTTP")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	logOutput := cfg.LogConfig
	if *repl && (logOutput.LogOutput == "" || logOutput.LogOutput == "stdout") {
		// stdout занят интерфейсом
		logOutput.LogOutput = "stderr"
	}
	appLogger, closeLog, err := logger.New(logOutput)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 1
	}
	defer closeLog()

	deps, err := setup.InitializeDependencies(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to init dependencies", "error", err)
		return 1
	}
	defer func() {
		if err := deps.Close(); err != nil {
			appLogger.Error("failed to close dependencies", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := deps.Form.Mount(); err != nil {
		appLogger.Error("failed to mount form", "error", err)
		return 1
	}
	tasks := background.NewBackgroundTasks(deps.Form, cfg.Rates.RefreshInterval, appLogger)
	appLogger.Info("exchange form started",
		"session_id", deps.Form.SessionID(),
		"env", cfg.Env,
		"rate_provider", deps.Provider.GetName(),
	)

	if *repl {
		tasks.StartAll(ctx)
		if err := cli.NewREPL(deps.Form, os.Stdin, os.Stdout).Run(ctx); err != nil {
			appLogger.Error("repl stopped", "error", err)
			return 1
		}
		return 0
	}

	healthHandler := grpcapi.NewHealthHandler(deps.Provider, appLogger)
	grpcServer := grpc.NewServer()
	healthHandler.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		appLogger.Error("failed to listen grpc", "error", err)
		return 1
	}
	tasks.WithHealthCheck(healthHandler, cfg.GRPCServer.CheckInterval).StartAll(ctx)

	go func() {
		appLogger.Info("grpc server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("failed to serve grpc", "error", err)
			stop()
		}
	}()

	handler := handlers.NewFormHandler(deps.Form, deps.History(), appLogger)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      handlers.NewRouter(handler, deps.Provider, deps.Registry, appLogger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("http server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("failed to serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	healthHandler.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	return 0
}
