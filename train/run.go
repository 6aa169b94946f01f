package train

import (
	"errors"
	"log"
	"time"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/treelstm/sgd"
)

// A Runner trains a model for a number of epochs, keeping
// the model with the best dev root accuracy.
type Runner struct {
	Trainer   *Trainer
	Optimizer sgd.StateMarshaler

	// Checkpoints receives the latest model, the best
	// model, the optimizer state and the run summary after
	// every epoch.
	// An existing run in the directory is resumed.
	Checkpoints *CheckpointDir

	Train SampleList
	Dev   SampleList
	Test  SampleList

	LearningRate float64

	// EmbeddingFactor scales the learning rate of the
	// embedding table.
	// If it is 0, the table uses LearningRate.
	EmbeddingFactor float64

	BatchSize int
	Epochs    int

	// LogInterval is the number of batches between cost
	// log lines.
	// If it is 0, batch costs are not logged.
	LogInterval int
}

// Run trains until Epochs have finished or stopper is
// done, then evaluates the best model on the test set.
//
// An interrupted epoch is discarded; the checkpoints keep
// the state of the last finished one.
func (r *Runner) Run(stopper sgd.Stopper) (*Summary, error) {
	if r.Train.Len() == 0 {
		return nil, errors.New("run training: no training trees")
	}
	summary, err := r.resume()
	if err != nil {
		return nil, essentials.AddCtx("run training", err)
	}

	model := r.Trainer.Model
	var epochCost float64
	var batchNum int
	s := &sgd.SGD{
		Gradienter:   r.Trainer,
		Transformer:  r.transformer(),
		Samples:      r.Train,
		Rater:        sgd.ConstRater(r.LearningRate),
		BatchSize:    r.BatchSize,
		NumProcessed: summary.NumProcessed,
		StatusFunc: func(batch sgd.SampleList) {
			epochCost += r.Trainer.LastCost
			batchNum++
			if r.LogInterval > 0 && batchNum%r.LogInterval == 0 {
				log.Printf("epoch %d batch %d: cost=%f", summary.Epoch+1, batchNum,
					r.Trainer.LastCost)
			}
		},
	}

	for summary.Epoch < r.Epochs {
		epochCost, batchNum = 0, 0
		model.SetTraining(true)
		if !s.Epoch(stopper) {
			log.Printf("epoch %d interrupted", summary.Epoch+1)
			break
		}
		summary.Epoch++
		summary.NumProcessed = s.NumProcessed

		dev := Evaluate(model, r.Dev, r.Trainer.MaxGos)
		record := EpochRecord{
			Epoch:     summary.Epoch,
			TrainLoss: epochCost / float64(batchNum),
			Dev:       dev,
			Finished:  time.Now().UTC(),
		}
		if !r.Trainer.Average {
			record.TrainLoss = epochCost / float64(r.Train.Len())
		}
		summary.Epochs = append(summary.Epochs, record)
		log.Printf("epoch %d: train_loss=%f dev: %s", summary.Epoch, record.TrainLoss, dev)

		if dev.RootAccuracy() > summary.BestDev || summary.BestEpoch == 0 {
			summary.BestDev = dev.RootAccuracy()
			summary.BestEpoch = summary.Epoch
			if err := r.Checkpoints.SaveModel(BestModelFile, model); err != nil {
				return nil, err
			}
			log.Printf("new best dev root accuracy: %f", summary.BestDev)
		}
		if err := r.saveLatest(summary); err != nil {
			return nil, err
		}
	}

	if err := r.finish(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *Runner) transformer() sgd.Transformer {
	embedding := r.Trainer.Model.Embedding
	if r.EmbeddingFactor == 0 || embedding.Frozen {
		return r.Optimizer
	}
	scaler := sgd.VarScaler{embedding.Table: r.EmbeddingFactor}
	if r.Optimizer == nil {
		return scaler
	}
	return sgd.Chain{r.Optimizer, scaler}
}

// optimizerVars lists the variables whose optimizer state
// is checkpointed, in a fixed order.
func (r *Runner) optimizerVars() []*anydiff.Var {
	return r.Trainer.Model.TrainableParameters()
}

// resume loads the summary, latest model and optimizer
// state of a previous run, or starts a new summary.
func (r *Runner) resume() (*Summary, error) {
	summary, err := r.Checkpoints.LoadSummary()
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return NewSummary(), nil
	}
	if summary.Epoch > 0 && r.Checkpoints.Exists(LatestModelFile) {
		model, err := r.Checkpoints.LoadModel(LatestModelFile)
		if err != nil {
			return nil, err
		}
		r.Trainer.Model = model
		if r.Optimizer != nil {
			data, err := r.Checkpoints.LoadOptimizer()
			if err != nil {
				return nil, err
			}
			if err := r.Optimizer.UnmarshalState(r.optimizerVars(), data); err != nil {
				return nil, err
			}
		}
		log.Printf("resuming run %s after epoch %d", summary.RunID, summary.Epoch)
	}
	return summary, nil
}

func (r *Runner) saveLatest(summary *Summary) error {
	if err := r.Checkpoints.SaveModel(LatestModelFile, r.Trainer.Model); err != nil {
		return err
	}
	if r.Optimizer != nil {
		data, err := r.Optimizer.MarshalState(r.optimizerVars())
		if err != nil {
			return err
		}
		if err := r.Checkpoints.SaveOptimizer(data); err != nil {
			return err
		}
	}
	return r.Checkpoints.SaveSummary(summary)
}

// finish evaluates the best model on the test set.
func (r *Runner) finish(summary *Summary) error {
	model := r.Trainer.Model
	if r.Checkpoints.Exists(BestModelFile) {
		best, err := r.Checkpoints.LoadModel(BestModelFile)
		if err != nil {
			return err
		}
		model = best
	}
	if r.Test.Len() > 0 {
		summary.Test = Evaluate(model, r.Test, r.Trainer.MaxGos)
		log.Printf("test (epoch %d model): %s", summary.BestEpoch, summary.Test)
	}
	return r.Checkpoints.SaveSummary(summary)
}
