package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_REPLY_DELAY shortens the deferred-reply delay so scenarios
	// complete quickly. Production keeps its own default.
	ReplyDelay time.Duration `envconfig:"E2E_REPLY_DELAY" default:"150ms"`
	// E2E_WAIT_TIMEOUT bounds every polling step in the scenarios
	WaitTimeout time.Duration `envconfig:"E2E_WAIT_TIMEOUT" default:"5s"`
	JWTSecret   string        `envconfig:"E2E_JWT_SECRET" default:"e2e-secret"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
