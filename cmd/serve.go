package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/reporter"
	"github.com/satyammistari/sqlcollections/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /v1/generate for editor and CI previews",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("section", "", "Dotted section to nest responses under")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	section, _ := cmd.Flags().GetString("section")
	cfg, err := generatorConfig()
	if err != nil {
		return err
	}
	if !reporter.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(addr, server.NewHandler(cfg, section))
	errc := make(chan error, 1)
	go func() {
		reporter.Info("listening on " + addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reporter.Info("shutting down")
	return srv.Shutdown(ctx)
}
