package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sociallink/auth"
	"sociallink/config"
	"sociallink/db"
	"sociallink/models"
	"sociallink/storage"
	"sociallink/utils"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/autotls"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// setup loads the configuration and opens everything commands rely on
func setup(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		if err := config.LoadFile(configFile); err != nil {
			return err
		}
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	if err := utils.InitLogger(config.DEBUG_MODE); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := db.Init(config.DATABASE_DRIVER, config.DATABASE_DSN); err != nil {
		return err
	}
	if err := storage.Init(); err != nil {
		return err
	}
	if err := models.Init(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return auth.Init()
}

func teardown() {
	_ = utils.Log.Sync()
	if db.Instance == nil {
		return
	}
	if sqlDB, err := db.Instance.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go cleanupLimiter(ctx)

	router := newRouter()
	if config.TLS_DOMAINS != "" {
		domains := strings.Split(config.TLS_DOMAINS, ",")
		utils.Log.Info("serving with automatic TLS", zap.Strings("domains", domains))
		return autotls.RunWithContext(ctx, router, domains...)
	}
	server := &http.Server{
		Addr:              config.BIND_ADDRESS,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		utils.Log.Info("listening", zap.String("address", config.BIND_ADDRESS))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	utils.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			authLimiter.Cleanup(time.Hour)
		}
	}
}

func permissionArgs(args []string) (models.User, models.Permission, error) {
	user, err := models.UserByUsername(args[0])
	if err != nil {
		return user, models.PermissionNone, fmt.Errorf("user %q: %w", args[0], err)
	}
	permission := models.PermissionFromString(args[1])
	if permission == models.PermissionNone {
		return user, permission, fmt.Errorf("unknown permission %q", args[1])
	}
	return user, permission, nil
}

func runGrant(cmd *cobra.Command, args []string) error {
	user, permission, err := permissionArgs(args)
	if err != nil {
		return err
	}
	if err = models.GrantPermission(user.ID, permission, nil); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", permission, user.Username)
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	user, permission, err := permissionArgs(args)
	if err != nil {
		return err
	}
	if err = models.RevokePermission(user.ID, permission); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", permission, user.Username)
	return nil
}

func runInviteCreate(cmd *cobra.Command, args []string) error {
	if inviteCount < 1 || inviteCount > 1000 {
		return errors.New("--count must be between 1 and 1000")
	}
	invites, err := models.CreateSystemInvites(inviteCount)
	if err != nil {
		return err
	}
	for _, invite := range invites {
		fmt.Fprintln(cmd.OutOrStdout(), invite.Token)
	}
	return nil
}
