package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tutoring API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		addr := a.Config.HTTPAddr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}
		grace, _ := cmd.Flags().GetDuration("shutdown-timeout")

		if a.Config.LogMode != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return a.Server().Run(ctx, addr, grace)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TUTORLY_HTTP_ADDR)")
	serveCmd.Flags().Duration("shutdown-timeout", 15*time.Second, "How long to drain requests on shutdown")
}
