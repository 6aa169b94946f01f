// Package config loads the settings shared by every
// treelstm command.
//
// Values come from, in order of precedence, command-line
// flags, TREELSTM_* environment variables, a YAML file,
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/fetch"
	"github.com/unixpickle/treelstm/sgd"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of configuration environment
// variables.
const EnvPrefix = "TREELSTM"

// Optimizer names.
const (
	Adagrad  = "adagrad"
	Adam     = "adam"
	RMSProp  = "rmsprop"
	Momentum = "momentum"
	Plain    = "sgd"
)

// Config holds every setting.
type Config struct {
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`
	SSTURL       string `mapstructure:"sst_url" yaml:"sst_url"`
	GloveURL     string `mapstructure:"glove_url" yaml:"glove_url"`
	GloveFile    string `mapstructure:"glove_file" yaml:"glove_file"`
	FilteredFile string `mapstructure:"filtered_file" yaml:"filtered_file"`
	KeepZips     bool   `mapstructure:"keep_zips" yaml:"keep_zips"`

	EmbeddingDim    int     `mapstructure:"embedding_dim" yaml:"embedding_dim"`
	LSTMUnits       int     `mapstructure:"lstm_units" yaml:"lstm_units"`
	KeepProb        float64 `mapstructure:"keep_prob" yaml:"keep_prob"`
	ForgetBias      float64 `mapstructure:"forget_bias" yaml:"forget_bias"`
	FreezeEmbedding bool    `mapstructure:"freeze_embedding" yaml:"freeze_embedding"`

	Optimizer         string  `mapstructure:"optimizer" yaml:"optimizer"`
	LearningRate      float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	EmbeddingLRFactor float64 `mapstructure:"embedding_lr_factor" yaml:"embedding_lr_factor"`
	WeightDecay       float64 `mapstructure:"weight_decay" yaml:"weight_decay"`
	AverageLoss       bool    `mapstructure:"average_loss" yaml:"average_loss"`
	BatchSize         int     `mapstructure:"batch_size" yaml:"batch_size"`
	Epochs            int     `mapstructure:"epochs" yaml:"epochs"`
	Workers           int     `mapstructure:"workers" yaml:"workers"`

	CheckpointDir string `mapstructure:"checkpoint_dir" yaml:"checkpoint_dir"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	LogInterval   int    `mapstructure:"log_interval" yaml:"log_interval"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DataDir:      "data",
		SSTURL:       fetch.SSTURL,
		GloveURL:     fetch.GloveURL,
		GloveFile:    "glove.840B.300d.txt",
		FilteredFile: "glove.filtered.txt",

		EmbeddingDim: 300,
		LSTMUnits:    300,
		KeepProb:     0.75,
		ForgetBias:   treelstm.DefaultForgetBias,

		Optimizer:         Adagrad,
		LearningRate:      0.05,
		EmbeddingLRFactor: 0.1,
		BatchSize:         100,
		Epochs:            20,

		CheckpointDir: "checkpoints",
		LogInterval:   10,
	}
}

// NewViper creates a viper instance with defaults and
// environment bindings.
// If file is non-empty, it names a YAML file to read in
// Load.
func NewViper(file string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Defaults())
	return v
}

func setDefaults(v *viper.Viper, c *Config) {
	defaults := map[string]interface{}{
		"data_dir":      c.DataDir,
		"sst_url":       c.SSTURL,
		"glove_url":     c.GloveURL,
		"glove_file":    c.GloveFile,
		"filtered_file": c.FilteredFile,
		"keep_zips":     c.KeepZips,

		"embedding_dim":    c.EmbeddingDim,
		"lstm_units":       c.LSTMUnits,
		"keep_prob":        c.KeepProb,
		"forget_bias":      c.ForgetBias,
		"freeze_embedding": c.FreezeEmbedding,

		"optimizer":           c.Optimizer,
		"learning_rate":       c.LearningRate,
		"embedding_lr_factor": c.EmbeddingLRFactor,
		"weight_decay":        c.WeightDecay,
		"average_loss":        c.AverageLoss,
		"batch_size":          c.BatchSize,
		"epochs":              c.Epochs,
		"workers":             c.Workers,

		"checkpoint_dir": c.CheckpointDir,
		"log_file":       c.LogFile,
		"log_interval":   c.LogInterval,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads the config file, if one was set, and
// produces a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var res Config
	if err := v.Unmarshal(&res); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var errs []error
	positive := []struct {
		name  string
		value int
	}{
		{"embedding_dim", c.EmbeddingDim},
		{"lstm_units", c.LSTMUnits},
		{"batch_size", c.BatchSize},
		{"epochs", c.Epochs},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.KeepProb <= 0 || c.KeepProb > 1 {
		errs = append(errs, fmt.Errorf("keep_prob must be in (0, 1], got %g", c.KeepProb))
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %g",
			c.LearningRate))
	}
	if c.EmbeddingLRFactor < 0 {
		errs = append(errs, fmt.Errorf("embedding_lr_factor must not be negative, got %g",
			c.EmbeddingLRFactor))
	}
	if c.WeightDecay < 0 {
		errs = append(errs, fmt.Errorf("weight_decay must not be negative, got %g",
			c.WeightDecay))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if _, err := c.NewOptimizer(); err != nil {
		errs = append(errs, err)
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	return errors.Join(errs...)
}

// NewOptimizer creates the configured gradient
// transformer.
// The plain "sgd" optimizer yields a nil transformer.
func (c *Config) NewOptimizer() (sgd.StateMarshaler, error) {
	switch strings.ToLower(c.Optimizer) {
	case Adagrad:
		return &sgd.Adagrad{}, nil
	case Adam:
		return &sgd.Adam{}, nil
	case RMSProp:
		return &sgd.RMSProp{}, nil
	case Momentum:
		return &sgd.Momentum{Momentum: 0.9}, nil
	case Plain:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", c.Optimizer)
	}
}

// ModelConfig returns the shape of a new model.
func (c *Config) ModelConfig() treelstm.ModelConfig {
	return treelstm.ModelConfig{
		StateSize:       c.LSTMUnits,
		KeepProb:        c.KeepProb,
		ForgetBias:      c.ForgetBias,
		FreezeEmbedding: c.FreezeEmbedding,
	}
}

// SSTDir is where the treebank archive is extracted.
func (c *Config) SSTDir() string {
	return filepath.Join(c.DataDir, "sst")
}

// TreesDir holds the train, dev and test splits.
func (c *Config) TreesDir() string {
	return filepath.Join(c.SSTDir(), "trees")
}

// GlovePath is the full GloVe text file.
func (c *Config) GlovePath() string {
	return filepath.Join(c.DataDir, c.GloveFile)
}

// FilteredPath is the GloVe subset covering the treebank.
func (c *Config) FilteredPath() string {
	return filepath.Join(c.DataDir, c.FilteredFile)
}

// YAML encodes the configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
