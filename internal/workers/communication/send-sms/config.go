// internal/workers/communication/send-sms/config.go
package sendsms

import (
	"time"

	"sahayak-workers/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	SenderID string
}

func LoadConfig(wc config.WorkerConfig, ic config.IntegrationConfig) *Config {
	cfg := &Config{
		Timeout:  config.GetDuration(wc.Timeout),
		SenderID: ic.AWS.SNS.DefaultSMSSenderID,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return cfg
}
