package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/glove"
	"github.com/unixpickle/treelstm/train"
)

var modelPath string

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Report metrics of a saved model on the dev and test sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadDataset(currentConfig)
		if err != nil {
			return err
		}
		model, err := loadModel(data.Embeddings.Vocab)
		if err != nil {
			return err
		}
		_, devSet, testSet, err := data.splits()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printMetrics(out, "dev", train.Evaluate(model, devSet, currentConfig.Workers))
		printMetrics(out, "test", train.Evaluate(model, testSet, currentConfig.Workers))
		return nil
	},
}

// loadModel reads the model selected by --model and
// checks that it matches the vocabulary.
func loadModel(vocab *glove.Vocab) (*treelstm.Model, error) {
	path := modelPath
	if path == "" {
		path = filepath.Join(currentConfig.CheckpointDir, train.BestModelFile)
	}
	model, err := train.LoadModel(path)
	if err != nil {
		return nil, err
	}
	if rows := model.Embedding.Rows(); rows != vocab.Len()+1 {
		return nil, fmt.Errorf("model has %d embedding rows but the vocabulary needs %d",
			rows, vocab.Len()+1)
	}
	model.SetTraining(false)
	return model, nil
}

func init() {
	for _, cmd := range []*cobra.Command{evalCmd, predictCmd} {
		cmd.Flags().StringVar(&modelPath, "model", "",
			"model file (default: best model in the checkpoint directory)")
	}
	rootCmd.AddCommand(evalCmd)
}
