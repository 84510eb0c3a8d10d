// internal/workers/conversation/assemble-response/config.go
package assembleresponse

import (
	"time"

	"sahayak-workers/internal/common/config"
)

type Config struct {
	Timeout         time.Duration
	DefaultLanguage string
}

func LoadConfig(wc config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:         config.GetDuration(wc.Timeout),
		DefaultLanguage: "english",
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}
