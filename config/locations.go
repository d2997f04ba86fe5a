package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location represents a known market location
type Location struct {
	Name   string    `json:"name" yaml:"name"`
	Center []float64 `json:"center" yaml:"center"` // lat, lng
}

// DefaultLocations is the built-in catalog of locations the query
// interpreter recognizes.
var DefaultLocations = []Location{
	{Name: "Akurdi", Center: []float64{18.6480, 73.7680}},
	{Name: "Ambegaon Budruk", Center: []float64{18.4560, 73.8480}},
	{Name: "Aundh", Center: []float64{18.5580, 73.8070}},
	{Name: "Wakad", Center: []float64{18.5990, 73.7640}},
}

type locationsFile struct {
	Locations []Location `yaml:"locations"`
}

// LoadLocations reads a location catalog from a YAML file. An empty path
// returns DefaultLocations.
func LoadLocations(path string) ([]Location, error) {
	if path == "" {
		return DefaultLocations, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations file: %w", err)
	}

	var file locationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse locations file: %w", err)
	}

	seen := make(map[string]bool)
	locations := make([]Location, 0, len(file.Locations))
	for _, loc := range file.Locations {
		name := strings.TrimSpace(loc.Name)
		if name == "" {
			return nil, fmt.Errorf("location without a name in %s", path)
		}
		if len(loc.Center) != 0 && len(loc.Center) != 2 {
			return nil, fmt.Errorf("location %q: center must be [lat, lng]", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		locations = append(locations, Location{Name: name, Center: loc.Center})
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("no locations defined in %s", path)
	}
	return locations, nil
}

// LocationNames returns the names of the given locations in catalog order
func LocationNames(locations []Location) []string {
	names := make([]string, len(locations))
	for i, loc := range locations {
		names[i] = loc.Name
	}
	return names
}
