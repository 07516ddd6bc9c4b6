package config

import (
	"fmt"
	"os"

	"github.com/shallweswim/backend-go/internal/models"
	"gopkg.in/yaml.v3"
)

// Location maps a swimming spot to the stations serving each measurement
// kind. A location does not have to provide every kind, but every kind it
// lists must name a station.
type Location struct {
	ID        string                 `yaml:"id"`
	Name      string                 `yaml:"name"`
	Latitude  float64                `yaml:"latitude"`
	Longitude float64                `yaml:"longitude"`
	Stations  map[models.Kind]string `yaml:"stations"`
}

// Locations is the immutable location registry loaded at startup.
type Locations struct {
	byID  map[string]Location
	order []string
}

type locationsFile struct {
	Locations []Location `yaml:"locations"`
}

// LoadLocations reads and validates a YAML location mapping file. A location
// with a missing or empty station mapping is a configuration error; the
// process should fail at startup rather than discover it per request.
func LoadLocations(path string) (*Locations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading locations file: %w", err)
	}
	return ParseLocations(data)
}

// ParseLocations builds the registry from raw YAML.
func ParseLocations(data []byte) (*Locations, error) {
	var file locationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing locations: %w", err)
	}
	if len(file.Locations) == 0 {
		return nil, fmt.Errorf("no locations configured")
	}

	locs := &Locations{byID: make(map[string]Location, len(file.Locations))}
	for _, loc := range file.Locations {
		if loc.ID == "" {
			return nil, fmt.Errorf("location missing id")
		}
		if _, dup := locs.byID[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}
		if len(loc.Stations) == 0 {
			return nil, fmt.Errorf("location %q: no station mappings", loc.ID)
		}
		for kind, stationID := range loc.Stations {
			if !kind.Valid() {
				return nil, fmt.Errorf("location %q: unknown kind %q", loc.ID, kind)
			}
			if stationID == "" {
				return nil, fmt.Errorf("location %q: missing station for kind %q", loc.ID, kind)
			}
		}
		locs.byID[loc.ID] = loc
		locs.order = append(locs.order, loc.ID)
	}
	return locs, nil
}

// DefaultLocations is the built-in registry used when no mapping file is
// configured: Grimaldo's Chair at Coney Island, with the Coney Island tide
// gauge, The Battery temperature buoy, and the NY Harbor current station.
func DefaultLocations() *Locations {
	locs, err := ParseLocations([]byte(defaultLocationsYAML))
	if err != nil {
		// The embedded registry is validated by tests; failing here means the
		// binary itself is broken.
		panic(fmt.Sprintf("invalid built-in locations: %v", err))
	}
	return locs
}

const defaultLocationsYAML = `
locations:
  - id: coney
    name: Coney Island (Grimaldo's Chair)
    latitude: 40.573
    longitude: -73.954
    stations:
      tide_height: "8517741"
      water_temperature: "8518750"
      current_vector: "ACT3876"
`

// Get returns the location for an id.
func (l *Locations) Get(id string) (Location, bool) {
	loc, ok := l.byID[id]
	return loc, ok
}

// IDs returns location ids in file order.
func (l *Locations) IDs() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}
