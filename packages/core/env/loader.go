package env

import "fmt"

// LoadEnvironment returns the variables configured for envName. An empty
// name yields an empty set; an unknown name is an error.
func LoadEnvironment(envName string, configEnvs map[string]map[string]any) (Variables, error) {
	vars := make(Variables)
	if envName == "" {
		return vars, nil
	}

	source, ok := configEnvs[envName]
	if !ok {
		return nil, fmt.Errorf("environment %q is not defined", envName)
	}
	for k, v := range source {
		vars[k] = v
	}
	return vars, nil
}

// MergeVariables merges sources left to right; later sources win
func MergeVariables(sources ...Variables) Variables {
	result := make(Variables)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
