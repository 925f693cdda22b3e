package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"scenecheck/internal/httpapi"
	"scenecheck/internal/logger"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags] <scene>",
		Short: "Serve the check session over HTTP",
		Long: `Run the checks once and serve the session: GET /snapshot, POST /run,
POST /issues/{id}/fix, POST /issues/{id}/select and GET /metrics. Fixes are
saved to the scene as they are applied.`,
		Args: cobra.ExactArgs(1),
		RunE: runServe,
	}
	cmd.Flags().String("addr", "127.0.0.1:8765", "listen address")
	cmd.Flags().Bool("no-save", false, "keep fixes in memory only")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}

	env, err := setupEnv(cmd, args[0], envOptions{})
	if err != nil {
		return err
	}
	defer env.finish(cmd)
	httpLog := logger.For(env.log, logger.ComponentHTTP)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := env.runAll(ctx); err != nil {
		return err
	}

	var saveMu sync.Mutex
	handler := httpapi.NewHandler(env.session, httpapi.Options{
		Logger:  httpLog,
		Metrics: env.metrics,
		AfterFix: func(context.Context) error {
			if noSave {
				return nil
			}
			saveMu.Lock()
			defer saveMu.Unlock()
			return env.save("")
		},
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		httpLog.Infow("listening", "addr", addr, "scene", env.scenePath)
		if !env.flags.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", env.scenePath, addr)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
