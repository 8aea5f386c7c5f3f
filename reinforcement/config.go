package reinforcement

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the envelope of a config file: a kind selector and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TrainingKind is the only config kind currently understood.
const TrainingKind = "training"

// TrainingConfig encodes the maze, the agent's hyperparameters and the training budget
// outside of code. Viper folds map keys to lower case, hence the lower case yaml tags;
// files may still spell keys in camelCase.
type TrainingConfig struct {
	// HyperParams is a list of key-val pairs of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// Maze selects the maze dimensions and, optionally, a seed for reproducible layouts.
	Maze MazeConfig `yaml:"maze"`
	// AgentSeed optionally seeds the learner's exploration.
	AgentSeed *uint64 `yaml:"agentseed"`
	// Episodes is the number of training episodes.
	Episodes int `yaml:"episodes"`
	// ExportEvery is the episode interval at which live views receive results.
	ExportEvery int `yaml:"exportevery"`
	// TrainingDeadline is a fixed duration describing when to terminate training.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
}

type MazeConfig struct {
	Size int     `yaml:"size"`
	Seed *uint64 `yaml:"seed"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// Hyperparameter keys.
const (
	KeyAlpha        = "alpha"
	KeyGamma        = "gamma"
	KeyEpsilon      = "epsilon"
	KeyEpsilonDecay = "epsilonDecay"
	KeyEpsilonMin   = "epsilonMin"
)

var (
	// ErrUnknownKind is returned for config files of a kind other than TrainingKind.
	ErrUnknownKind = errors.New("unknown config kind")
	// ErrInvalidConfig is returned when a decoded config fails validation.
	ErrInvalidConfig = errors.New("invalid training config")
)

// DefaultTrainingConfig returns the config used when no file is given.
func DefaultTrainingConfig() *TrainingConfig {
	return &TrainingConfig{
		Maze:        MazeConfig{Size: 10},
		Episodes:    1000,
		ExportEvery: 10,
	}
}

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// Hyper resolves the hyperparameter list against the defaults and validates the result.
func (cfg *TrainingConfig) Hyper() (HyperParams, error) {
	def := DefaultHyperParams()
	hp := HyperParams{
		Alpha:        cfg.GetHyperParamOrDefault(KeyAlpha, def.Alpha),
		Gamma:        cfg.GetHyperParamOrDefault(KeyGamma, def.Gamma),
		Epsilon:      cfg.GetHyperParamOrDefault(KeyEpsilon, def.Epsilon),
		EpsilonDecay: cfg.GetHyperParamOrDefault(KeyEpsilonDecay, def.EpsilonDecay),
		EpsilonMin:   cfg.GetHyperParamOrDefault(KeyEpsilonMin, def.EpsilonMin),
	}
	return hp, hp.Validate()
}

// Validate checks the maze and episode budget as well as the resolved hyperparameters.
func (cfg *TrainingConfig) Validate() error {
	if cfg.Maze.Size < 1 {
		return fmt.Errorf("%w: maze size %d", ErrInvalidConfig, cfg.Maze.Size)
	}
	if cfg.Episodes < 0 {
		return fmt.Errorf("%w: episodes %d", ErrInvalidConfig, cfg.Episodes)
	}
	if cfg.ExportEvery < 1 {
		return fmt.Errorf("%w: exportEvery %d", ErrInvalidConfig, cfg.ExportEvery)
	}
	if _, err := cfg.Hyper(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// RunSpec converts the config into the description of a single training run.
func (cfg *TrainingConfig) RunSpec(name string) (RunSpec, error) {
	if err := cfg.Validate(); err != nil {
		return RunSpec{}, err
	}
	hp, _ := cfg.Hyper()
	return RunSpec{
		Name:      name,
		MazeSize:  cfg.Maze.Size,
		MazeSeed:  cfg.Maze.Seed,
		AgentSeed: cfg.AgentSeed,
		Episodes:  cfg.Episodes,
		Hyper:     hp,
	}, nil
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("training deadline: %w", err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml reads a {kind, def} document with viper and decodes its definition over
// the defaults, so absent fields keep their default values.
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != TrainingKind {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, outerConfig.Kind)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := DefaultTrainingConfig()
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err = innerConfig.Validate(); err != nil {
		return nil, err
	}

	return innerConfig, nil
}

// Save writes the config as a {kind, def} document that FromYaml reads back.
func (cfg *TrainingConfig) Save(path string) error {
	data, err := yaml.Marshal(&OuterConfig{Kind: TrainingKind, Def: cfg})
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
