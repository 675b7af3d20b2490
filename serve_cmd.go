package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nosabos/nosabos/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the speech generation proxy",
	Long: paragraph(fmt.Sprintf("\n%s the generative AI API behind a small HTTP server, "+
		"so clients never see the API key.", keyword("Proxy"))),
	Example: paragraph("NOSABOS_GENAI_API_KEY=... nosabos serve --addr :9090"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "nosabos",
		})
		if debug {
			logger.SetLevel(log.DebugLevel)
		}
		if cfg.GenAI.APIKey == "" {
			logger.Warn("No API key configured, generation requests will fail")
		}

		gen, closeGen, err := newGenerator(cfg, "", logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeGen(); err != nil {
				logger.Error("Closing speech cache failed", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return proxy.New(proxy.ConfigFrom(cfg.Proxy), gen, logger).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "address to listen on (default from config)")
	_ = viper.BindPFlag("proxy.addr", serveCmd.Flags().Lookup("addr"))
}
