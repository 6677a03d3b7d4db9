package integrationtest

import (
	"os"
	"sync"
	"testing"

	"github.com/humanbelnik/kinomatch/internal/config"
)

// Integration suites talk to a real postgres and only run when
// KINOMATCH_INTEGRATION is set, e.g. from docker compose.
const gateEnv = "KINOMATCH_INTEGRATION"

var (
	cfg     *config.Config
	cfgOnce sync.Once
)

func getConfig() *config.Config {
	cfgOnce.Do(func() {
		cfg = config.Load(os.Getenv("KINOMATCH_ENV_FILE"))
	})
	return cfg
}

func requireIntegration(t *testing.T) {
	if os.Getenv(gateEnv) == "" {
		t.Skipf("%s not set", gateEnv)
	}
}
