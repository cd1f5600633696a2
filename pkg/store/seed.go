package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Sternrassler/pioneers/pkg/pioneer"
)

// LoadSeedFile reads a JSON array of pioneers.
func LoadSeedFile(path string) ([]pioneer.Pioneer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var pioneers []pioneer.Pioneer
	if err := json.Unmarshal(data, &pioneers); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return pioneers, nil
}
