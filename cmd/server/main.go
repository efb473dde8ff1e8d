package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/cedricziel/vtql/internal/app"
	"github.com/cedricziel/vtql/internal/config"
	"github.com/cedricziel/vtql/internal/server"
)

func main() {
	flags := pflag.NewFlagSet("vtql-server", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load("", flags)
	if err != nil {
		config.LogConfig{Level: "info"}.NewLogger(os.Stderr).Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	address := cfg.Address()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		logger.Error("Failed to listen", "address", address, "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	server.RegisterDispatcherServer(grpcServer, server.New(a.Registry, a.Dispatcher, logger))

	// Register reflection service for debugging with tools like grpcurl
	reflection.Register(grpcServer)

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gRPC server...")
		grpcServer.GracefulStop()
	}()

	logger.Info("gRPC server listening", "address", address)
	if err := grpcServer.Serve(listener); err != nil {
		logger.Error("Failed to serve", "error", err)
		os.Exit(1)
	}
}
