package train

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
	"github.com/unixpickle/treelstm"
	"gopkg.in/yaml.v3"
)

// Files inside a checkpoint directory.
const (
	LatestModelFile = "model.ckpt"
	BestModelFile   = "best.ckpt"
	OptimizerFile   = "optimizer.state"
	SummaryFile     = "summary.yaml"
	lockFile        = ".lock"
)

// ErrLocked is returned when another process is using a
// checkpoint directory.
var ErrLocked = errors.New("checkpoint directory is locked by another run")

// An EpochRecord describes one finished epoch.
type EpochRecord struct {
	Epoch     int       `yaml:"epoch"`
	TrainLoss float64   `yaml:"train_loss"`
	Dev       *Metrics  `yaml:"dev"`
	Finished  time.Time `yaml:"finished"`
}

// A Summary tracks the progress of a training run.
// It is stored as YAML next to the checkpoints and is
// used to resume an interrupted run.
type Summary struct {
	RunID        string        `yaml:"run_id"`
	Started      time.Time     `yaml:"started"`
	Epoch        int           `yaml:"epoch"`
	NumProcessed int           `yaml:"num_processed"`
	BestEpoch    int           `yaml:"best_epoch"`
	BestDev      float64       `yaml:"best_dev_root_accuracy"`
	Epochs       []EpochRecord `yaml:"epochs"`
	Test         *Metrics      `yaml:"test,omitempty"`
}

// NewSummary creates a summary for a fresh run.
func NewSummary() *Summary {
	return &Summary{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}
}

// A CheckpointDir is a directory of checkpoints owned by
// a single training run.
type CheckpointDir struct {
	Dir  string
	lock *flock.Flock
}

// OpenCheckpointDir creates dir if necessary and locks it.
func OpenCheckpointDir(dir string) (*CheckpointDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, essentials.AddCtx("open checkpoint directory", err)
	}
	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, essentials.AddCtx("open checkpoint directory", err)
	} else if !locked {
		return nil, ErrLocked
	}
	return &CheckpointDir{Dir: dir, lock: lock}, nil
}

// Close releases the directory lock.
func (c *CheckpointDir) Close() error {
	return c.lock.Unlock()
}

// Path returns the path of a file in the directory.
func (c *CheckpointDir) Path(name string) string {
	return filepath.Join(c.Dir, name)
}

// Exists checks if a file is present in the directory.
func (c *CheckpointDir) Exists(name string) bool {
	_, err := os.Stat(c.Path(name))
	return err == nil
}

// SaveModel serializes a model to a file.
func (c *CheckpointDir) SaveModel(name string, m *treelstm.Model) error {
	data, err := serializer.SerializeAny(m)
	if err != nil {
		return essentials.AddCtx("save model", err)
	}
	return c.write(name, data)
}

// LoadModel reads a model saved with SaveModel.
func (c *CheckpointDir) LoadModel(name string) (*treelstm.Model, error) {
	return LoadModel(c.Path(name))
}

// SaveOptimizer writes optimizer state.
func (c *CheckpointDir) SaveOptimizer(data []byte) error {
	return c.write(OptimizerFile, data)
}

// LoadOptimizer reads optimizer state.
// A missing file yields empty state.
func (c *CheckpointDir) LoadOptimizer() ([]byte, error) {
	data, err := os.ReadFile(c.Path(OptimizerFile))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, essentials.AddCtx("load optimizer", err)
	}
	return data, nil
}

// SaveSummary writes the run summary.
func (c *CheckpointDir) SaveSummary(s *Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return essentials.AddCtx("save summary", err)
	}
	return c.write(SummaryFile, data)
}

// LoadSummary reads the run summary.
// If there is no summary, nil is returned with no error.
func (c *CheckpointDir) LoadSummary() (*Summary, error) {
	data, err := os.ReadFile(c.Path(SummaryFile))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, essentials.AddCtx("load summary", err)
	}
	var res Summary
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, essentials.AddCtx("load summary", err)
	}
	return &res, nil
}

// write replaces a file atomically.
func (c *CheckpointDir) write(name string, data []byte) error {
	tmp := c.Path(name + ".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return essentials.AddCtx("write "+name, err)
	}
	if err := os.Rename(tmp, c.Path(name)); err != nil {
		os.Remove(tmp)
		return essentials.AddCtx("write "+name, err)
	}
	return nil
}

// LoadModel reads a serialized model from a file.
func LoadModel(path string) (*treelstm.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	var res *treelstm.Model
	if err := serializer.DeserializeAny(data, &res); err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	return res, nil
}
