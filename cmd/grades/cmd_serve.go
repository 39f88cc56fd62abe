package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/studentgrades/gradebook/log"
	"github.com/studentgrades/gradebook/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web form for editing grades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			log.Init(&log.Config{Dir: a.cfg.LogDir})
			store, err := a.openStore()
			if err != nil {
				return err
			}
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           web.New(store).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       time.Minute,
				WriteTimeout:      time.Minute,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			chErr := make(chan error, 1)
			go func() {
				log.Logf("serving '%s' on http://%s\n", store.Path, addr)
				chErr <- httpSrv.ListenAndServe()
			}()

			select {
			case err = <-chErr:
			case <-ctx.Done():
				log.Logf("shutting down\n")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err = httpSrv.Shutdown(shutdownCtx)
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: $GRADES_HTTP_ADDR or 127.0.0.1:8080)")
	return cmd
}
