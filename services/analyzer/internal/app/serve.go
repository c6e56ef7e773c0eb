package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stoik/lure/services/analyzer/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serves /analyze, /analyses and /health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		log := newLogger()

		comps, err := buildComponents(ctx, log)
		if err != nil {
			return err
		}
		defer comps.close()

		if viper.GetString("log.level") != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%s", viper.GetString("port")),
			Handler:           api.NewRouter(comps.service, comps.aiState, log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errChan := make(chan error, 1)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("starting analyzer API")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
			close(errChan)
		}()

		// Wait for signal or error
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down gracefully...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("some requests may not have completed")
			}
			return nil
		case err := <-errChan:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().String("port", "8000", "HTTP listen port")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}
