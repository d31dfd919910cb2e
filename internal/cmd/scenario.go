package cmd

import (
	"fmt"

	"github.com/ivlev/choreo/internal/director"
	"github.com/ivlev/choreo/internal/effects"
	"github.com/ivlev/choreo/internal/engine"
)

// scenarioPath returns the first argument, or the newest scenario in the
// configured directory.
func scenarioPath(args []string, dir string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, err := director.FindLatestScenario(dir)
	if err != nil {
		return "", fmt.Errorf("no scenario given and %w", err)
	}
	logger.Info("using latest scenario", "path", path)
	return path, nil
}

// loadConfigs reads a scenario and returns the configs of the selected
// sequence, or of every sequence when id is empty.
func loadConfigs(path, id string, callbacks *effects.Callbacks) ([]engine.Config, error) {
	scn, err := director.ReadScenario(path)
	if err != nil {
		return nil, err
	}
	configs, err := scn.Configs(callbacks)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return configs, nil
	}
	for _, cfg := range configs {
		if cfg.ID == id {
			return []engine.Config{cfg}, nil
		}
	}
	return nil, fmt.Errorf("sequence %q not found in %s", id, path)
}
