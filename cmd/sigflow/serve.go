package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/glinharesb/sigflow/internal/audit"
	"github.com/glinharesb/sigflow/internal/config"
	"github.com/glinharesb/sigflow/internal/interceptor"
	"github.com/glinharesb/sigflow/internal/server"
	"github.com/glinharesb/sigflow/internal/workflow"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a freshly generated workflow over gRPC.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cfg.GRPCAddr, "addr", cfg.GRPCAddr, "gRPC listen address")
	flags.StringVar(&cfg.AuthToken, "auth-token", cfg.AuthToken, "bearer token required on calls (empty disables auth)")
	flags.IntVar(&cfg.RateLimitRPS, "rate-limit", cfg.RateLimitRPS, "requests per second (0 disables limiting)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	auditLogger := audit.NewLogger(cfg.AuditBuffer, os.Stdout)
	defer auditLogger.Close()

	wf, err := workflow.New(cfg.Params(), workflowOptions(cfg, auditLogger)...)
	if err != nil {
		return err
	}

	limiter := interceptor.NewRateLimiter(cfg.RateLimitRPS)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.RecoveryUnary(),
			interceptor.LoggingUnary(),
			limiter.Unary(),
			interceptor.AuthUnary(cfg.AuthToken),
		),
		grpc.ChainStreamInterceptor(
			interceptor.RecoveryStream(),
			interceptor.LoggingStream(),
			limiter.Stream(),
			interceptor.AuthStream(cfg.AuthToken),
		),
	)
	server.RegisterSignatureServiceServer(srv, server.NewSigningServer(wf, auditLogger))
	reflection.Register(srv)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	go func() {
		slog.Info("server starting", "addr", lis.Addr().String(), "fingerprint", wf.Fingerprint(),
			"signature_algorithm", wf.SignatureAlgorithm())
		if err := srv.Serve(lis); err != nil {
			slog.Error("serve", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		slog.Warn("graceful shutdown timed out, forcing stop")
		srv.Stop()
	}
	return nil
}
