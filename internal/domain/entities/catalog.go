package entities

import (
	"fmt"
	"time"
)

// GlobalSettings holds catalog-wide defaults
type GlobalSettings struct {
	DefaultColors          Colors `json:"defaultColors" yaml:"defaultColors"`
	LoadingText            string `json:"loadingText,omitempty" yaml:"loadingText,omitempty"`
	InstructionText        string `json:"instructionText,omitempty" yaml:"instructionText,omitempty"`
	MaxSimultaneousTargets int    `json:"maxSimultaneousTargets,omitempty" yaml:"maxSimultaneousTargets,omitempty"`
}

// Catalog is the ordered product set loaded once per session.
// It is treated as read-only after the configuration provider returns it.
type Catalog struct {
	Products       []Product      `json:"products" yaml:"products"`
	GlobalSettings GlobalSettings `json:"globalSettings" yaml:"globalSettings"`
	Source         string         `json:"source,omitempty" yaml:"-"`
	LoadedAt       time.Time      `json:"loadedAt,omitempty" yaml:"-"`
}

// TargetGroup is the set of products sharing one physical target
type TargetGroup struct {
	TargetIndex int
	Products    []Product
}

// IsShared reports whether the group needs classification to disambiguate
func (g TargetGroup) IsShared() bool {
	return len(g.Products) > 1
}

// ProductIDs returns the ids in catalog order
func (g TargetGroup) ProductIDs() []string {
	ids := make([]string, len(g.Products))
	for i, p := range g.Products {
		ids[i] = p.ID
	}
	return ids
}

// ProductByID returns the product with the given id
func (c *Catalog) ProductByID(id string) (*Product, bool) {
	for i := range c.Products {
		if c.Products[i].ID == id {
			return &c.Products[i], true
		}
	}
	return nil, false
}

// Groups partitions products by target index. Groups are ordered by the
// first appearance of their index and products keep catalog order.
func (c *Catalog) Groups() []TargetGroup {
	positions := make(map[int]int)
	groups := make([]TargetGroup, 0)
	for _, p := range c.Products {
		pos, ok := positions[p.TargetIndex]
		if !ok {
			pos = len(groups)
			positions[p.TargetIndex] = pos
			groups = append(groups, TargetGroup{TargetIndex: p.TargetIndex})
		}
		groups[pos].Products = append(groups[pos].Products, p)
	}
	return groups
}

// LabelMap maps classifier labels to product ids
func (c *Catalog) LabelMap() map[string]string {
	labels := make(map[string]string, len(c.Products))
	for i := range c.Products {
		labels[c.Products[i].ClassifierLabel()] = c.Products[i].ID
	}
	return labels
}

// ValidateUniqueIDs returns an error naming the first duplicated product id
func (c *Catalog) ValidateUniqueIDs() error {
	seen := make(map[string]struct{}, len(c.Products))
	for i, p := range c.Products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("product at index %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
