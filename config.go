package nodepool

import "errors"

// DefaultLimit is the default number of free blocks a cache tier retains
// per size class before excess frees are released to the underlying heap.
const DefaultLimit = 1024

type Config struct {
	// Limit caps the number of free blocks the shared cache tier retains per
	// size class. Frees beyond the limit go straight to the underlying heap,
	// so the limit bounds retained memory without ever failing an operation.
	Limit int

	// LocalLimit caps each per-goroutine cache. A value of 0 means use Limit.
	LocalLimit int

	// Debug composes the allocation size validator into every pipeline.
	// Defaults to true only in builds tagged pooldebug.
	Debug bool
}

func (c Config) Validate() error {
	var errs []error
	if c.Limit < 1 {
		errs = append(errs, errors.New("invalid config: Limit must be at least 1"))
	}
	if c.LocalLimit < 0 {
		errs = append(errs, errors.New("invalid config: LocalLimit must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) localLimit() int {
	if c.LocalLimit > 0 {
		return c.LocalLimit
	}
	return c.Limit
}

func DefaultConfig() Config {
	return Config{
		Limit: DefaultLimit,
		Debug: debugEnabled, // Size validation only in builds tagged pooldebug.
	}
}
