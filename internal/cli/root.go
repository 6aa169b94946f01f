// Package cli implements the treelstm command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/unixpickle/treelstm/config"
)

var (
	cfgFile       string
	v             = config.NewViper("")
	currentConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "treelstm",
	Short:         "TreeLSTM sentiment classification on the Stanford Sentiment Treebank",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		currentConfig = cfg
		if err := initLogging(cfg.LogFile); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
}

// Execute runs the command line.
func Execute() {
	defer closeLogging()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("error: "), err)
		closeLogging()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	flags.String("data-dir", "", "directory for downloaded and derived data")
	flags.String("checkpoint-dir", "", "directory for checkpoints and the run summary")
	flags.String("log-file", "", "also write logs to this file")
	flags.Int("workers", 0, "goroutines for evaluating trees (0 = GOMAXPROCS)")
	flags.Int("embedding-dim", 0, "word vector dimension")

	bindFlags(flags, map[string]string{
		"data_dir":       "data-dir",
		"checkpoint_dir": "checkpoint-dir",
		"log_file":       "log-file",
		"workers":        "workers",
		"embedding_dim":  "embedding-dim",
	})
}
