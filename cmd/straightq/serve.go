package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/internal/server"
	"github.com/lox/straightq/sdk/solver/runtime"
)

type ServeCmd struct {
	Addr string `help:"listen address (empty keeps config value)"`
}

func (cmd *ServeCmd) Run(ctx context.Context, cfg *config.Config) error {
	table, meta, err := loadTable(ctx, cfg)
	if err != nil {
		return err
	}

	addr := cfg.Server.Address
	if cmd.Addr != "" {
		addr = cmd.Addr
	}
	srv := server.NewServer(addr, runtime.New(table, meta), log.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down advice server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
