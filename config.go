package pwreport

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the .pwreport.yaml configuration file.
type Config struct {
	// Output is the path the JSON report is written to.
	Output string `yaml:"output,omitempty"`

	// JUnit, when set, is the path an additional JUnit XML report is
	// written to.
	JUnit string `yaml:"junit,omitempty"`

	// Format selects the live progress renderer (dots, verbose, tui).
	Format string `yaml:"format,omitempty"`

	// MaxReruns is the default rerun budget for failing tests.
	// 0 means no retry policy.
	MaxReruns int `yaml:"max_reruns,omitempty"`

	// Reruns overrides the rerun budget per test. Keys are glob
	// patterns matched against the "suite::name[param]" identity
	// string.
	Reruns map[string]int `yaml:"reruns,omitempty"`

	// Env provides values for skip-condition expressions, e.g.
	// browser: webkit. OS environment variables are layered on top
	// under the "env" key by the CLI.
	Env map[string]string `yaml:"env,omitempty"`
}

// RerunsFor returns the rerun budget for an identity: the most
// specific matching glob override, falling back to MaxReruns.
func (c *Config) RerunsFor(id Identity) int {
	s := id.String()
	best := ""
	n := c.MaxReruns

	for pattern, count := range c.Reruns {
		matched, err := filepath.Match(pattern, s)
		if err != nil || !matched {
			continue
		}

		if len(pattern) > len(best) {
			best = pattern
			n = count
		}
	}

	return n
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".pwreport.yaml", ".pwreport.yml", "pwreport.yaml", "pwreport.yml"}

// LoadConfig finds and loads the nearest .pwreport.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
