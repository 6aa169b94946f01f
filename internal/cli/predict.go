package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unixpickle/treelstm/glove"
	"github.com/unixpickle/treelstm/sst"
)

var predictCmd = &cobra.Command{
	Use:   "predict [tree...]",
	Short: "Classify parse trees given as arguments or on stdin",
	Long: "Classify parse trees in treebank notation, such as\n" +
		"\"(2 (2 a) (3 (3 good) (2 movie)))\". Node labels are ignored.\n" +
		"Without arguments, one tree per line is read from stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig
		emb, err := glove.LoadFile(cfg.FilteredPath(), cfg.EmbeddingDim)
		if err != nil {
			return fmt.Errorf("load word vectors: %w", err)
		}
		model, err := loadModel(emb.Vocab)
		if err != nil {
			return err
		}

		var trees []*sst.Tree
		if len(args) == 0 {
			trees, err = sst.ReadTrees(cmd.InOrStdin())
			if err != nil {
				return err
			}
		}
		for i, arg := range args {
			tree, err := sst.Parse(arg)
			if err != nil {
				return fmt.Errorf("argument %d: %w", i+1, err)
			}
			trees = append(trees, tree)
		}

		out := cmd.OutOrStdout()
		for _, tree := range trees {
			node, err := tree.Index(emb.Vocab.Index)
			if err != nil {
				return err
			}
			probs := model.Apply(node).Probabilities()
			printPrediction(out, tree.Sentence(), probs[len(probs)-1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
}
