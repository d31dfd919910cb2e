package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/choreo/internal/errors"
)

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	if scenario.Version == "" {
		scenario.Version = CurrentVersion
	}
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal scenario", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, fmt.Sprintf("failed to write scenario: %s", path), err)
	}
	return nil
}

// ReadScenario reads a scenario from a YAML file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read scenario: %s", path), err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, errors.NewFileUnmarshalError(path, "yaml", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := decodeStrict(data, &scenario); err != nil {
		return nil, err
	}
	if scenario.Version == "" {
		scenario.Version = CurrentVersion
	}
	return &scenario, nil
}

// ReadLayout reads a layout file for Compose.
func ReadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read layout: %s", path), err)
	}

	var layout Layout
	if err := decodeStrict(data, &layout); err != nil {
		return nil, errors.NewFileUnmarshalError(path, "yaml", err)
	}
	return &layout, nil
}
