package roles

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// RolePack is the on-disk YAML format for user-defined roles.
type RolePack struct {
	Roles []Role `yaml:"roles"`
}

// LoadRolePack parses a YAML role pack and registers every role it contains.
// Validation happens through Register, so a pack referencing an unknown
// validator or carrying a non-positive weight fails as a whole before any
// discussion runs.
func LoadRolePack(reg *Registry, path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading role pack: %w", err)
	}

	var pack RolePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return 0, fmt.Errorf("parsing role pack %s: %w", path, err)
	}
	if len(pack.Roles) == 0 {
		return 0, fmt.Errorf("role pack %s defines no roles", path)
	}

	for _, role := range pack.Roles {
		if err := reg.Register(role); err != nil {
			return 0, fmt.Errorf("role pack %s: %w", path, err)
		}
	}

	logger.Info("role pack loaded", "path", path, "roles", len(pack.Roles))
	return len(pack.Roles), nil
}
