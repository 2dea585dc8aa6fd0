package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// config is the optional .fhirpathrc.yaml shape (SPEC_FULL.md §A.3): ambient
// CLI configuration, not part of the library's Options contract.
type config struct {
	Mode          string `yaml:"mode"`
	Trivia        bool   `yaml:"trivia"`
	ModelProvider string `yaml:"model_provider"` // "" or "basic"
}

const configFileName = ".fhirpathrc.yaml"

// loadConfig reads .fhirpathrc.yaml from the current directory if present,
// using gopkg.in/yaml.v3 the same way the teacher's lib/yaml builtins
// encode/decode YAML values. A missing file is not an error — it just
// means every subcommand runs with library defaults.
func loadConfig() config {
	var cfg config
	data, err := os.ReadFile(configFileName)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg
	}
	return cfg
}
