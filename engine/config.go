package engine

import (
	"github.com/pkg/errors"

	"huim/core"
)

// Default knobs for the optional behaviors. Zero MaxMemoryBytes disables
// the memory ceiling.
const (
	DefaultParallelGranularity = 16
	DefaultProgressInterval    = 10000
	DefaultMemoryCheckInterval = 100
)

// Configuration carries everything a mining run needs. Immutable once
// validated; the engine never writes back into it.
type Configuration struct {
	K              int
	MinProbability float64
	ItemProfits    map[int]float64

	Epsilon    float64
	LogEpsilon float64

	// NumRoutines > 1 selects the parallel engine; ParallelGranularity is
	// the extension-list length past which a search level is split across
	// workers.
	NumRoutines         int
	ParallelGranularity int

	MaxMemoryBytes      uint64
	ProgressInterval    int
	MemoryCheckInterval int
}

// NewConfiguration builds a validated configuration with defaults for the
// optional knobs.
func NewConfiguration(k int, minProbability float64, itemProfits map[int]float64) (*Configuration, error) {
	profits := make(map[int]float64, len(itemProfits))
	for item, profit := range itemProfits {
		profits[item] = profit
	}
	cfg := &Configuration{
		K:                   k,
		MinProbability:      minProbability,
		ItemProfits:         profits,
		Epsilon:             core.Epsilon,
		LogEpsilon:          core.LogEpsilon,
		NumRoutines:         1,
		ParallelGranularity: DefaultParallelGranularity,
		ProgressInterval:    DefaultProgressInterval,
		MemoryCheckInterval: DefaultMemoryCheckInterval,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) Validate() error {
	if c.K <= 0 {
		return errors.New("k must be a positive integer")
	}
	if c.MinProbability < 0 || c.MinProbability > 1 {
		return errors.New("min_probability must be between 0 and 1")
	}
	if len(c.ItemProfits) == 0 {
		return errors.New("profit table is empty")
	}
	if c.Epsilon <= 0 {
		return errors.New("epsilon must be positive")
	}
	if c.LogEpsilon >= 0 {
		return errors.New("log epsilon must be negative")
	}
	if c.NumRoutines < 1 {
		return errors.New("num_routines must be at least 1")
	}
	if c.ParallelGranularity < 2 {
		return errors.New("parallel_granularity must be at least 2")
	}
	return nil
}

// Profit returns the profit for item, zero when the profit table does not
// list it.
func (c *Configuration) Profit(item int) float64 {
	return c.ItemProfits[item]
}
