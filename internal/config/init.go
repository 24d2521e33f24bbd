package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const exampleHeader = `# docshound configuration.
# Values shown are the defaults. ${VAR} references are expanded from the
# environment and from .env / .env.local.
`

// Init writes an example configuration file holding the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, append([]byte(exampleHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
