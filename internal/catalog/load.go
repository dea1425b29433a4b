package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default_catalog.toml
var defaultCatalogTOML []byte

type catalogFile struct {
	Steps []StepDefinition `toml:"steps"`
}

// Default returns the built-in LLC formation catalog.
func Default() *Catalog {
	cat, err := parse(defaultCatalogTOML)
	if err != nil {
		// The embedded catalog is validated by tests; reaching this is a build defect.
		panic(fmt.Sprintf("catalog: embedded default invalid: %v", err))
	}
	return cat
}

// Load reads a catalog from a TOML file. An empty path yields the default
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(file.Steps)
}
