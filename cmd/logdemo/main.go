package main

import (
	"fmt"
	"os"

	"github.com/lingobot/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	workDir    string
	level      string
)

var rootCmd = &cobra.Command{
	Use:   "logdemo",
	Short: "Exercise the bot logging service",
	Long: `logdemo drives the logging service the way the bot does: direct calls,
an HTTP access log and the Telegram middleware.

Log files go to <workdir>/<rel_log_file_dir>.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a logging YAML config (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", ".", "working directory the log dir is resolved against")
	rootCmd.PersistentFlags().StringVar(&level, "level", "", "override the configured level")

	rootCmd.AddCommand(emitCmd, serveCmd, botCmd)
}

// openService loads the config and starts the logging service.
func openService() (*logging.Service, error) {
	cfg := logging.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = logging.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if level != "" {
		cfg.Level = level
	}
	return logging.New(workDir, cfg)
}
