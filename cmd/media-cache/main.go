package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-media-cache/internal/auth"
	"go-media-cache/internal/config"
)

const (
	defaultConfigPath = "/app/cache_config.yaml"
	defaultRulesPath  = "/app/cache_rules.yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, rulesPath string

	rootCmd := &cobra.Command{
		Use:           "media-cache",
		Short:         "Caching gateway in front of media providers",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(
				resolvePath(configPath, "CACHE_CONFIG_FILE", defaultConfigPath),
				resolvePath(rulesPath, "CACHE_RULES_FILE", defaultRulesPath),
			)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the service config (env CACHE_CONFIG_FILE)")
	rootCmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Path to the cache rules (env CACHE_RULES_FILE)")

	rootCmd.AddCommand(newTokenCmd(&configPath))
	return rootCmd
}

// newTokenCmd issues admin tokens for the cache mutation endpoints
func newTokenCmd(configPath *string) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token for /cache/set and /cache/delete",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := GetAdminSecret("")
			if secret == "" {
				cfg, err := config.LoadConfig(resolvePath(*configPath, "CACHE_CONFIG_FILE", defaultConfigPath), zap.NewNop())
				if err != nil {
					return err
				}
				secret = cfg.Admin.JWTSecret
			}
			if secret == "" {
				return fmt.Errorf("no admin secret: set ADMIN_JWT_SECRET or admin.jwt_secret")
			}

			token, expiresAt, err := auth.Generate(
				secret,
				lo.Must(cmd.Flags().GetString("subject")),
				lo.Must(cmd.Flags().GetDuration("ttl")),
			)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	tokenCmd.Flags().StringP("subject", "s", "admin", "Subject recorded in the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return tokenCmd
}

func runServer(configPath, rulesPath string) error {
	// Initialize composition root with all dependencies
	root, err := NewCompositionRoot(configPath, rulesPath)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if err := root.Cleanup(); err != nil {
			root.Logger.Error("Failed to cleanup resources", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- root.HTTPServer.Start()
	}()

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			root.Logger.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	}

	root.Logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := root.HTTPServer.Stop(ctx); err != nil {
		root.Logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	root.Logger.Info("Server exited")
	return nil
}
