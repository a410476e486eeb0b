package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/rulecheck/internal/config"
	"github.com/danielpatrickdp/rulecheck/internal/rules/remote"
)

var (
	serveProvider string
	serveAddr     string
	serveProfile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose a rule provider over gRPC",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.LoadProfile(firstNonEmpty(serveProfile, env.Profile))
		if err != nil {
			return usageError(err)
		}
		run, err := config.Resolve(profile, env)
		if err != nil {
			return usageError(err)
		}
		p, closer, err := openProvider(run.Labels.A, serveProvider, run.Space)
		if err != nil {
			return usageError(err)
		}
		defer closer.Close()

		lis, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return usageError(fmt.Errorf("listen %s: %w", serveAddr, err))
		}

		srv := grpc.NewServer()
		remote.RegisterRuleServiceServer(srv, remote.NewServer(p, run.Space, logger))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			logger.Info("shutting down rule service")
			srv.GracefulStop()
		}()

		logger.Info("rule service listening", "addr", lis.Addr().String(), "provider", serveProvider)
		if err := srv.Serve(lis); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "provider to serve, tricks:<path> or lua:<path>")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:50061", "listen address")
	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "YAML profile (default $RULECHECK_PROFILE)")
	_ = serveCmd.MarkFlagRequired("provider")
}
