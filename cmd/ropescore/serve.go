package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/reference"
	"github.com/verte-zerg/ropescore/internal/server"
)

var (
	serveAddr        string
	serveReadTimeout string
	serveSave        bool
	serveNoHistory   bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().StringVar(&serveReadTimeout, "read-timeout", defaultReadTimeout, "request read timeout")
	cmd.Flags().BoolVar(&serveSave, "save", false, "save every valid score request")
	cmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "disable the score history endpoints")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyStringConfig(cmd, "read-timeout", &serveReadTimeout, fileCfg.Serve.ReadTimeout)
	applyBoolConfig(cmd, "save", &serveSave, fileCfg.Serve.SaveRequests)

	readTimeout, err := time.ParseDuration(serveReadTimeout)
	if err != nil || readTimeout <= 0 {
		return fmt.Errorf("invalid --read-timeout %q", serveReadTimeout)
	}
	if serveSave && serveNoHistory {
		return fmt.Errorf("--save requires score history; drop --no-history")
	}

	logger, err := newLogger(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat, err := reference.Load()
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(logger)}
	if !serveNoHistory {
		st, closeStore, err := openStore(logger)
		if err != nil {
			return err
		}
		defer closeStore()
		opts = append(opts, server.WithStore(st))
	}

	srv := server.New(server.Config{
		Addr:        serveAddr,
		ReadTimeout: readTimeout,
		SaveAll:     serveSave,
	}, cat, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

