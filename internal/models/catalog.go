package models

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the static list of purchasable upgrades. It is read-only after
// LoadCatalog returns.
type Catalog struct {
	upgrades []Upgrade
	byID     map[string]int
}

type catalogFile struct {
	Upgrades []Upgrade `yaml:"upgrades"`
}

// LoadCatalog parses and validates a YAML catalog document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Upgrades) == 0 {
		return nil, fmt.Errorf("catalog has no upgrades")
	}

	c := &Catalog{
		upgrades: f.Upgrades,
		byID:     make(map[string]int, len(f.Upgrades)),
	}
	for i, u := range f.Upgrades {
		if err := validateUpgrade(u); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if _, dup := c.byID[u.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, u.ID)
		}
		c.byID[u.ID] = i
	}
	return c, nil
}

func validateUpgrade(u Upgrade) error {
	switch {
	case u.ID == "":
		return fmt.Errorf("missing id")
	case u.BaseCost <= 0:
		return fmt.Errorf("upgrade %q: baseCost must be positive, got %v", u.ID, u.BaseCost)
	case u.CostGrowthFactor <= 1:
		return fmt.Errorf("upgrade %q: costGrowthFactor must be greater than 1, got %v", u.ID, u.CostGrowthFactor)
	case u.EffectMagnitude <= 0:
		return fmt.Errorf("upgrade %q: effectMagnitude must be positive, got %v", u.ID, u.EffectMagnitude)
	case u.Target != StatClickPower && u.Target != StatAutoRate:
		return fmt.Errorf("upgrade %q: unknown target %q", u.ID, u.Target)
	}
	return nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(catalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// Get looks up an upgrade by id.
func (c *Catalog) Get(id string) (Upgrade, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Upgrade{}, false
	}
	return c.upgrades[i], true
}

// List returns the upgrades in catalog order.
func (c *Catalog) List() []Upgrade {
	out := make([]Upgrade, len(c.upgrades))
	copy(out, c.upgrades)
	return out
}

func (c *Catalog) Len() int {
	return len(c.upgrades)
}
