// internal/workers/discovery/evaluate-eligibility/config.go
package evaluateeligibility

import (
	"time"

	"sahayak-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration

	// MaxAlternatives bounds the substitute suggestions returned with an
	// ineligible verdict; CandidateLimit bounds the catalog fetch that
	// feeds the alternative search.
	MaxAlternatives int
	CandidateLimit  int
}

func LoadConfig(wc config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:         config.GetDuration(wc.Timeout),
		MaxAlternatives: 3,
		CandidateLimit:  25,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}
