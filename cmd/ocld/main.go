package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	"github.com/cometbft/cometbft/abci/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onchainlottery/internal/app"
)

const envPrefix = "OCL"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ocld",
		Short:         "on-chain lottery ABCI daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer()
		},
	}

	flags := rootCmd.Flags()
	flags.String("home", ".ocl", "app home directory (state will be stored under <home>/app)")
	flags.String("addr", "tcp://127.0.0.1:26658", "ABCI listen address")
	flags.String("transport", "socket", "ABCI transport (socket|grpc)")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	return rootCmd
}

func runServer() error {
	filter, err := log.ParseLogLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := log.NewLogger(os.Stderr, log.FilterOption(filter))

	a, err := app.New(viper.GetString("home"), logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer func() { _ = a.Close() }()

	srv, err := server.NewServer(viper.GetString("addr"), viper.GetString("transport"), a)
	if err != nil {
		return fmt.Errorf("start abci server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("abci server start: %w", err)
	}
	defer func() { _ = srv.Stop() }()

	logger.Info("abci server listening", "addr", viper.GetString("addr"), "transport", viper.GetString("transport"))

	// Wait for signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}
