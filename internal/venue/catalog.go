// Package venue maps arena section identifiers to seating tiers.
package venue

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"go.yaml.in/yaml/v3"

	"github.com/rewired-gh/seatscout/internal/models"
)

//go:embed data/msg.yaml
var defaultDataset []byte

// Catalog is immutable reference data built once at startup. Lookups go
// through a reverse index from section ID to tier.
type Catalog struct {
	Venue   string
	Version string
	tiers   []models.SectionTier
	index   map[string]int
}

// NewCatalog indexes tiers by section. Every section may belong to at most
// one tier, and center/corner sets must be subsets of the tier's sections.
func NewCatalog(tiers []models.SectionTier) (*Catalog, error) {
	c := &Catalog{
		tiers: make([]models.SectionTier, 0, len(tiers)),
		index: make(map[string]int),
	}
	for i, tier := range tiers {
		if tier.Name == "" {
			return nil, fmt.Errorf("tier %d has no name", i)
		}
		if tier.Elevation == models.ElevationUnknown {
			return nil, fmt.Errorf("tier %q has no elevation class", tier.Name)
		}
		members := make(map[string]struct{}, len(tier.Sections))
		for _, raw := range tier.Sections {
			id := models.NormalizeSection(raw)
			if id == "" {
				return nil, fmt.Errorf("tier %q has an empty section id", tier.Name)
			}
			if prev, dup := c.index[id]; dup {
				return nil, fmt.Errorf("section %q belongs to both %q and %q", id, c.tiers[prev].Name, tier.Name)
			}
			if _, dup := members[id]; dup {
				return nil, fmt.Errorf("section %q listed twice in tier %q", id, tier.Name)
			}
			members[id] = struct{}{}
			c.index[id] = len(c.tiers)
		}
		for id := range tier.Center {
			if _, ok := members[id]; !ok {
				return nil, fmt.Errorf("center section %q is not part of tier %q", id, tier.Name)
			}
		}
		for id := range tier.Corner {
			if _, ok := members[id]; !ok {
				return nil, fmt.Errorf("corner section %q is not part of tier %q", id, tier.Name)
			}
		}
		c.tiers = append(c.tiers, tier.Clone())
	}
	return c, nil
}

// Classify returns the tier owning sectionID. The second result is false for
// unrecognized sections, which callers exclude from scoring.
func (c *Catalog) Classify(sectionID string) (models.SectionTier, bool) {
	i, ok := c.index[models.NormalizeSection(sectionID)]
	if !ok {
		return models.SectionTier{}, false
	}
	return c.tiers[i].Clone(), true
}

// Tiers returns the tiers in dataset order.
func (c *Catalog) Tiers() []models.SectionTier {
	out := make([]models.SectionTier, len(c.tiers))
	for i, tier := range c.tiers {
		out[i] = tier.Clone()
	}
	return out
}

// Len is the number of indexed sections.
func (c *Catalog) Len() int {
	return len(c.index)
}

type dataset struct {
	Version string     `yaml:"version"`
	Venue   string     `yaml:"venue"`
	Tiers   []tierSpec `yaml:"tiers"`
}

type tierSpec struct {
	Name      string   `yaml:"name"`
	Elevation string   `yaml:"elevation"`
	PriceLow  float64  `yaml:"price_low"`
	PriceHigh float64  `yaml:"price_high"`
	Sections  []string `yaml:"sections"`
	Center    []string `yaml:"center"`
	Corner    []string `yaml:"corner"`
}

// LoadCatalog reads a YAML tier dataset.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var ds dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode venue dataset: %w", err)
	}
	if len(ds.Tiers) == 0 {
		return nil, fmt.Errorf("venue dataset %q has no tiers", ds.Venue)
	}

	tiers := make([]models.SectionTier, 0, len(ds.Tiers))
	for _, ts := range ds.Tiers {
		elev, err := models.ParseElevation(ts.Elevation)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", ts.Name, err)
		}
		if ts.PriceLow > ts.PriceHigh {
			return nil, fmt.Errorf("tier %q: price_low exceeds price_high", ts.Name)
		}
		tiers = append(tiers, models.SectionTier{
			Name:      ts.Name,
			Elevation: elev,
			PriceLow:  decimal.NewFromFloat(ts.PriceLow),
			PriceHigh: decimal.NewFromFloat(ts.PriceHigh),
			Sections:  ts.Sections,
			Center:    models.SectionSet(ts.Center...),
			Corner:    models.SectionSet(ts.Corner...),
		})
	}

	c, err := NewCatalog(tiers)
	if err != nil {
		return nil, err
	}
	c.Venue = ds.Venue
	c.Version = ds.Version
	return c, nil
}

// Default returns the embedded Madison Square Garden catalog.
func Default() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultDataset))
}
