package analysistest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

// Scenario describes a condition and the variable types it leaves behind in both
// branches. Types are fully qualified doc comment types.
type Scenario struct {
	Name      string            `yaml:"name"`
	Sources   map[string]string `yaml:"sources"`
	Namespace string            `yaml:"namespace"`
	Class     string            `yaml:"class"`
	Variables map[string]string `yaml:"variables"`
	Condition string            `yaml:"condition"`
	Truthy    map[string]string `yaml:"truthy"`
	Falsey    map[string]string `yaml:"falsey"`
	// Types maps expressions to the type GetType returns in the initial scope
	Types map[string]string `yaml:"types"`
}

// LoadScenarios reads a list of scenarios from a YAML file
func LoadScenarios(t testing.TB, path string) []Scenario {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var scenarios []Scenario
	require.NoError(t, yaml.Unmarshal(data, &scenarios))
	require.NotEmpty(t, scenarios, "no scenarios in %s", path)
	return scenarios
}
