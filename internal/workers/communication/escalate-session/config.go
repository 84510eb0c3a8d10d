// internal/workers/communication/escalate-session/config.go
package escalatesession

import (
	"time"

	"sahayak-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	FromEmail    string
	SupportEmail string
}

func LoadConfig(wc config.WorkerConfig, ic config.IntegrationConfig) *Config {
	cfg := &Config{
		Timeout:      config.GetDuration(wc.Timeout),
		FromEmail:    ic.AWS.SES.FromEmail,
		SupportEmail: ic.AWS.SES.SupportEmail,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return cfg
}
