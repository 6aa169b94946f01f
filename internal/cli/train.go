package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/rip"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/sgd"
	"github.com/unixpickle/treelstm/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model, resuming from the checkpoint directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig
		data, err := loadDataset(cfg)
		if err != nil {
			return err
		}
		trainSet, devSet, testSet, err := data.splits()
		if err != nil {
			return err
		}

		optimizer, err := cfg.NewOptimizer()
		if err != nil {
			return err
		}
		ckpt, err := train.OpenCheckpointDir(cfg.CheckpointDir)
		if err != nil {
			return err
		}
		defer ckpt.Close()

		c := anyvec32.CurrentCreator()
		model := treelstm.NewModel(data.Embeddings.Matrix(c), cfg.EmbeddingDim,
			cfg.ModelConfig())
		runner := &train.Runner{
			Trainer: &train.Trainer{
				Model:       model,
				MaxGos:      cfg.Workers,
				WeightDecay: cfg.WeightDecay,
				Average:     cfg.AverageLoss,
			},
			Optimizer:       optimizer,
			Checkpoints:     ckpt,
			Train:           trainSet,
			Dev:             devSet,
			Test:            testSet,
			LearningRate:    cfg.LearningRate,
			EmbeddingFactor: cfg.EmbeddingLRFactor,
			BatchSize:       cfg.BatchSize,
			Epochs:          cfg.Epochs,
			LogInterval:     cfg.LogInterval,
		}

		log.Println("Press ctrl+c once to stop after the current batch...")
		summary, err := runner.Run(sgd.StopChan(rip.NewRIP().Chan()))
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}

		out := cmd.OutOrStdout()
		headerColor.Fprintf(out, "Run %s: best dev root accuracy %.4f at epoch %d\n",
			summary.RunID, summary.BestDev, summary.BestEpoch)
		if summary.Test != nil {
			printMetrics(out, "test", summary.Test)
		}
		return nil
	},
}

func init() {
	flags := trainCmd.Flags()
	flags.Int("epochs", 0, "number of epochs")
	flags.Int("batch-size", 0, "trees per mini-batch")
	flags.Float64("learning-rate", 0, "step size")
	flags.Float64("embedding-lr-factor", 0, "learning rate multiplier for word vectors")
	flags.String("optimizer", "", "adagrad, adam, rmsprop, momentum or sgd")
	flags.Int("lstm-units", 0, "LSTM state size")
	flags.Float64("keep-prob", 0, "dropout keep probability")
	flags.Float64("weight-decay", 0, "L2 penalty on dense parameters")
	flags.Bool("freeze-embedding", false, "do not train word vectors")
	flags.Bool("average-loss", false, "average the loss over each batch")
	flags.Int("log-interval", 0, "batches between cost log lines")
	bindFlags(flags, map[string]string{
		"epochs":              "epochs",
		"batch_size":          "batch-size",
		"learning_rate":       "learning-rate",
		"embedding_lr_factor": "embedding-lr-factor",
		"optimizer":           "optimizer",
		"lstm_units":          "lstm-units",
		"keep_prob":           "keep-prob",
		"weight_decay":        "weight-decay",
		"freeze_embedding":    "freeze-embedding",
		"average_loss":        "average-loss",
		"log_interval":        "log-interval",
	})
	rootCmd.AddCommand(trainCmd)
}
