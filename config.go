package baraza

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Config specifies a simulation run. The zero values of CheckInterval,
// RoundTimeout, MaxSimTime, MaxRounds and InitialValues are filled in with
// defaults; everything else is validated as given.
type Config struct {
	NumProposers int
	NumAcceptors int
	NumLearners  int

	// InitialValues holds one initial value per proposer. Left empty, the
	// values op-1..op-n are generated.
	InitialValues []string

	// MessageLoss is the probability in [0,1] that the network drops any
	// single message.
	MessageLoss float64

	// Delivery delay is sampled uniformly from [MinDelay, MaxDelay].
	MinDelay time.Duration
	MaxDelay time.Duration

	// On every failure check each alive node fails with FailureProb and
	// each failed node recovers with RecoveryProb, both in [0,1].
	FailureProb   float64
	RecoveryProb  float64
	CheckInterval time.Duration

	// RoundTimeout is a proposer's per-phase deadline before it abandons
	// the round. Defaults to a multiple of MaxDelay.
	RoundTimeout time.Duration

	// MaxSimTime bounds the simulated time of a run; MaxRounds bounds the
	// rounds any one proposer may start. Exhausting either is a reported
	// outcome, not an error.
	MaxSimTime time.Duration
	MaxRounds  int

	// SilentRejects makes acceptors ignore rejected messages instead of
	// answering NACK. Safety holds either way; NACKs only improve liveness.
	SilentRejects bool

	// Seed feeds the network's and failure simulator's randomness so runs
	// can be replayed.
	Seed int64
}

// Validate checks the numeric bounds of the configuration. It returns a
// ConfigError describing the first violation found.
func (c Config) Validate() error {
	switch {
	case c.NumAcceptors < 1:
		return ConfigError(fmt.Sprintf("number of acceptors:%d must be at least 1", c.NumAcceptors))
	case c.NumProposers < 1:
		return ConfigError(fmt.Sprintf("number of proposers:%d must be at least 1", c.NumProposers))
	case c.NumLearners < 1:
		return ConfigError(fmt.Sprintf("number of learners:%d must be at least 1", c.NumLearners))
	case c.MessageLoss < 0 || c.MessageLoss > 1:
		return ConfigError(fmt.Sprintf("message loss probability:%v is outside [0,1]", c.MessageLoss))
	case c.FailureProb < 0 || c.FailureProb > 1:
		return ConfigError(fmt.Sprintf("failure probability:%v is outside [0,1]", c.FailureProb))
	case c.RecoveryProb < 0 || c.RecoveryProb > 1:
		return ConfigError(fmt.Sprintf("recovery probability:%v is outside [0,1]", c.RecoveryProb))
	case c.MinDelay < 0:
		return ConfigError(fmt.Sprintf("minimum delay:%v is negative", c.MinDelay))
	case c.MinDelay > c.MaxDelay:
		return ConfigError(fmt.Sprintf("minimum delay:%v exceeds maximum delay:%v", c.MinDelay, c.MaxDelay))
	case c.MaxRounds < 0:
		return ConfigError(fmt.Sprintf("round budget:%d is negative", c.MaxRounds))
	case len(c.InitialValues) != 0 && len(c.InitialValues) != c.NumProposers:
		return ConfigError(fmt.Sprintf("got %d initial values for %d proposers", len(c.InitialValues), c.NumProposers))
	}
	return nil
}

func (c Config) withDefaults() Config {
	if len(c.InitialValues) == 0 {
		for i := 0; i < c.NumProposers; i++ {
			c.InitialValues = append(c.InitialValues, fmt.Sprintf("op-%d", i+1))
		}
	}
	if c.RoundTimeout == 0 {
		c.RoundTimeout = 4 * c.MaxDelay
		if c.RoundTimeout < 10*time.Millisecond {
			c.RoundTimeout = 10 * time.Millisecond
		}
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = 5 * time.Second
	}
	if c.MaxSimTime == 0 {
		c.MaxSimTime = time.Minute
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 10
	}
	return c
}

// GenerateConfig returns a default configuration for the given node counts:
// a reliable network with 10-100ms delays and mild failure churn.
func GenerateConfig(numProposers, numAcceptors, numLearners int) Config {
	return Config{
		NumProposers: numProposers,
		NumAcceptors: numAcceptors,
		NumLearners:  numLearners,
		MessageLoss:  0.0,
		MinDelay:     10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		FailureProb:  0.05,
		RecoveryProb: 0.2,
	}
}

// fileConfig is the on-disk JSON schema. Delays and deadlines are stored as
// seconds, matching the command line surface.
type fileConfig struct {
	NumProposers  int      `json:"num_proposers"`
	NumAcceptors  int      `json:"num_acceptors"`
	NumLearners   int      `json:"num_learners"`
	InitialValues []string `json:"initial_values,omitempty"`
	MessageLoss   float64  `json:"message_loss"`
	MinDelay      float64  `json:"min_delay"`
	MaxDelay      float64  `json:"max_delay"`
	FailureProb   float64  `json:"failure_prob"`
	RecoveryProb  float64  `json:"recovery_prob"`
	CheckInterval float64  `json:"check_interval,omitempty"`
	RoundTimeout  float64  `json:"round_timeout,omitempty"`
	MaxSimTime    float64  `json:"max_sim_time,omitempty"`
	MaxRounds     int      `json:"max_rounds,omitempty"`
	SilentRejects bool     `json:"silent_rejects,omitempty"`
	Seed          int64    `json:"seed,omitempty"`
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func duration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// LoadConfig reads and validates a configuration from a JSON file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to read config file:%v", path)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return Config{}, errors.Wrapf(err, "unable to parse config file:%v", path)
	}
	c := Config{
		NumProposers:  fc.NumProposers,
		NumAcceptors:  fc.NumAcceptors,
		NumLearners:   fc.NumLearners,
		InitialValues: fc.InitialValues,
		MessageLoss:   fc.MessageLoss,
		MinDelay:      duration(fc.MinDelay),
		MaxDelay:      duration(fc.MaxDelay),
		FailureProb:   fc.FailureProb,
		RecoveryProb:  fc.RecoveryProb,
		CheckInterval: duration(fc.CheckInterval),
		RoundTimeout:  duration(fc.RoundTimeout),
		MaxSimTime:    duration(fc.MaxSimTime),
		MaxRounds:     fc.MaxRounds,
		SilentRejects: fc.SilentRejects,
		Seed:          fc.Seed,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// SaveConfig writes a configuration to a JSON file.
func SaveConfig(c Config, path string) error {
	fc := fileConfig{
		NumProposers:  c.NumProposers,
		NumAcceptors:  c.NumAcceptors,
		NumLearners:   c.NumLearners,
		InitialValues: c.InitialValues,
		MessageLoss:   c.MessageLoss,
		MinDelay:      seconds(c.MinDelay),
		MaxDelay:      seconds(c.MaxDelay),
		FailureProb:   c.FailureProb,
		RecoveryProb:  c.RecoveryProb,
		CheckInterval: seconds(c.CheckInterval),
		RoundTimeout:  seconds(c.RoundTimeout),
		MaxSimTime:    seconds(c.MaxSimTime),
		MaxRounds:     c.MaxRounds,
		SilentRejects: c.SilentRejects,
		Seed:          c.Seed,
	}
	raw, err := json.MarshalIndent(fc, "", "    ")
	if err != nil {
		return errors.Wrap(err, "unable to encode config")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write config file:%v", path)
	}
	return nil
}
