package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unixpickle/treelstm/sst"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Write the GloVe vectors for words in the treebank",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := sst.LoadCorpus(currentConfig.TreesDir())
		if err != nil {
			return fmt.Errorf("load treebank: %w", err)
		}
		return filterVectors(currentConfig, corpus)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
}
