package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wiretap-proxy/wiretap/internal/dispatch"
	"github.com/wiretap-proxy/wiretap/internal/logging"
	proxyhttp "github.com/wiretap-proxy/wiretap/proxy/http"
	"github.com/wiretap-proxy/wiretap/proxy/intercept"
	"github.com/wiretap-proxy/wiretap/proxy/registry"
)

const defaultShutdownTimeout = 30

var (
	listenFlag          string
	targetFlag          string
	apiPortFlag         int
	shutdownTimeoutFlag int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the intercepting proxy and inspection API",
	Long: `Start the intercepting proxy. Clients connecting to the listen
address are relayed to the target; captured traffic is available on the
inspection API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProxy(cmd)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVarP(&listenFlag, "listen", "l", "", "Address to accept client connections on")
	startCmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Upstream address to relay traffic to")
	startCmd.Flags().IntVar(&apiPortFlag, "api-port", 0, "Port for the inspection HTTP API")
	startCmd.Flags().IntVar(&shutdownTimeoutFlag, "shutdown-timeout", defaultShutdownTimeout,
		"Graceful shutdown timeout in seconds")
}

func runProxy(cmd *cobra.Command) error {
	// Flags override environment configuration
	if listenFlag != "" {
		cfg.ListenAddr = listenFlag
	}
	if targetFlag != "" {
		cfg.TargetAddr = targetFlag
	}
	if apiPortFlag != 0 {
		cfg.APIPort = apiPortFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := registry.New()

	// All session notifications run serially on one queue
	queue := dispatch.NewQueue()
	defer queue.Close()

	proxy, err := intercept.New(&intercept.Options{
		ListenAddr: cfg.ListenAddr,
		TargetAddr: cfg.TargetAddr,
		Registry:   reg,
		Dispatch:   queue.Dispatch,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	apiServer := proxyhttp.NewServer(&proxyhttp.Options{
		Port:     cfg.APIPort,
		Registry: reg,
		Logger:   logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		if err := proxy.Start(ctx); err != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("proxy error: %w", err)
		}
	}()
	go func() {
		logger.Info("Inspection API listening", logging.Int("port", cfg.APIPort))
		errs <- fmt.Errorf("api server error: %w", apiServer.ListenAndServe())
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		_ = proxy.Close()
		_ = apiServer.Close()
		return err

	case sig := <-shutdown:
		logger.Info("Shutting down", logging.String("signal", sig.String()))
		cancel()
		_ = proxy.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeoutFlag)*time.Second)
		defer shutdownCancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			if err := apiServer.Close(); err != nil {
				return fmt.Errorf("could not stop API server: %w", err)
			}
			return fmt.Errorf("could not gracefully shutdown API server: %w", err)
		}

		logger.Info("Stopped")
	}

	return nil
}
