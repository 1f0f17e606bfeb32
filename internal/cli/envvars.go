package cli

import (
	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from BATCHCTL_* env vars.
type baseEnv struct {
	// ProjectRoot is the project root from BATCHCTL_PROJECT_ROOT.
	ProjectRoot string `env:"BATCHCTL_PROJECT_ROOT"`
	// LogLevel is the logging level from BATCHCTL_LOG_LEVEL.
	LogLevel string `env:"BATCHCTL_LOG_LEVEL"`
	// BatchFile is the batch file path from BATCHCTL_BATCH.
	BatchFile string `env:"BATCHCTL_BATCH"`
	// Output is the report format from BATCHCTL_OUTPUT.
	Output string `env:"BATCHCTL_OUTPUT"`
}

// parseEnv fills target from BATCHCTL_* env vars via caarlos0/env.
func parseEnv(target interface{}) error {
	return envparse.Parse(target)
}
