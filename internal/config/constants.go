package config

// Version is the current fhirpath module version.
// Set at build time via -ldflags "-X .../internal/config.Version=..." or by
// writing to this file directly.
var Version = "0.1.0"

const BatchFileExt = ".yaml"

// BatchFileExtensions lists every extension cmd/fhirpath's batch runner
// recognizes for its YAML test-case files.
var BatchFileExtensions = []string{".yaml", ".yml"}

// TrimBatchExt removes a recognized batch-file extension from name.
// Returns the original string if no extension matches.
func TrimBatchExt(name string) string {
	for _, ext := range BatchFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasBatchExt returns true if the path ends with a recognized batch-file
// extension.
func HasBatchExt(path string) bool {
	for _, ext := range BatchFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// ConformanceFileExt is the extension of the txtar conformance scenario
// archives under testdata/conformance.
const ConformanceFileExt = ".txtar"
