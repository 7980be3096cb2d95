package cli

import (
	"context"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"task-planner-supervisor/internal/config"
)

var (
	version = "dev"

	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "supervisor",
	Short: "Start the task planner web server and Telegram bot",
	Long: `supervisor waits for the database and cache, runs the one-shot setup steps
(collectstatic, migrate) and then launches the web server and the bot,
forwarding stop signals to them and exiting once they have exited.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		initLogger(cfg)
		if cfg.File != "" {
			log.WithField("file", cfg.File).Debug("config file loaded")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return newApp(cfg).Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./supervisor.yaml or /etc/supervisor/supervisor.yaml)")
}

// ExecuteContext runs the root command. Cancelling ctx stops the services.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if level < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
