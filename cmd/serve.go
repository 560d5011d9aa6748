// =============================================================================
// Purchase Order Form Engine - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   poform serve [--addr :8080]
//
// Serves the editor API until SIGINT or SIGTERM, then shuts down gracefully.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/purchase-order-xml/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP editor API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	exporter, err := newExporter()
	if err != nil {
		return err
	}

	client := newLLMClient()
	if !client.Configured() {
		logger.Warn("OpenAI API key not configured; /api/chatgpt is disabled")
	}
	logger.Info("starting editor API", zap.String("addr", mainConfig.Server.Addr))
	return server.New(mainConfig, exporter, client, logger).Run(ctx)
}
