package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	// ErrDuplicateID is returned when a table lists the same id twice.
	ErrDuplicateID = errors.New("catalog: duplicate id")
	// ErrNegativePrice is returned when a priced attribute is below zero.
	ErrNegativePrice = errors.New("catalog: negative price")
	// ErrMissingID is returned when a record has an empty id.
	ErrMissingID = errors.New("catalog: missing id")
)

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the built-in product catalog. The snapshot is decoded once
// and shared.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Load(bytes.NewReader(defaultYAML))
	})
	return defaultCat, defaultErr
}

// MustDefault is Default for command entrypoints and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a catalog YAML document from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a catalog YAML document and indexes it.
func Load(r io.Reader) (*Catalog, error) {
	var t Tables
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(t)
}

// New validates the tables and builds an indexed Catalog.
func New(t Tables) (*Catalog, error) {
	c := &Catalog{
		bases:       append([]BaseSeries(nil), t.Bases...),
		heights:     append([]HeightOption(nil), t.Heights...),
		finishes:    append([]FinishColor(nil), t.Finishes...),
		shapes:      append([]TopShape(nil), t.Shapes...),
		materials:   append([]TopMaterial(nil), t.Materials...),
		edges:       append([]EdgeOption(nil), t.Edges...),
		accessories: append([]Accessory(nil), t.Accessories...),
		laminates:   append([]Laminate(nil), t.Laminates...),
	}
	var err error
	if c.baseByID, err = index("bases", c.bases, func(b BaseSeries) string { return b.ID }); err != nil {
		return nil, err
	}
	if c.heightByID, err = index("heights", c.heights, func(h HeightOption) string { return h.ID }); err != nil {
		return nil, err
	}
	if c.finishByID, err = index("finishes", c.finishes, func(f FinishColor) string { return f.ID }); err != nil {
		return nil, err
	}
	if c.shapeByID, err = index("shapes", c.shapes, func(s TopShape) string { return s.ID }); err != nil {
		return nil, err
	}
	if c.materialByID, err = index("materials", c.materials, func(m TopMaterial) string { return m.ID }); err != nil {
		return nil, err
	}
	if c.edgeByID, err = index("edges", c.edges, func(e EdgeOption) string { return e.ID }); err != nil {
		return nil, err
	}
	if c.accessoryByID, err = index("accessories", c.accessories, func(a Accessory) string { return a.ID }); err != nil {
		return nil, err
	}
	if c.laminateByID, err = index("laminates", c.laminates, func(l Laminate) string { return l.ID }); err != nil {
		return nil, err
	}
	if err := c.checkPrices(); err != nil {
		return nil, err
	}
	return c, nil
}

func index[T any](table string, rows []T, id func(T) string) (map[string]int, error) {
	out := make(map[string]int, len(rows))
	for i, row := range rows {
		key := id(row)
		if key == "" {
			return nil, fmt.Errorf("%w: %s[%d]", ErrMissingID, table, i)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: %s %q", ErrDuplicateID, table, key)
		}
		out[key] = i
	}
	return out, nil
}

func (c *Catalog) checkPrices() error {
	for _, b := range c.bases {
		if b.BasePrice.IsNegative() {
			return fmt.Errorf("%w: base %q", ErrNegativePrice, b.ID)
		}
	}
	for _, h := range c.heights {
		if h.PriceAdder.IsNegative() {
			return fmt.Errorf("%w: height %q", ErrNegativePrice, h.ID)
		}
	}
	for _, s := range c.shapes {
		if s.PriceMultiplier.IsNegative() {
			return fmt.Errorf("%w: shape %q", ErrNegativePrice, s.ID)
		}
	}
	for _, m := range c.materials {
		if m.PricePerSqFt.IsNegative() {
			return fmt.Errorf("%w: material %q", ErrNegativePrice, m.ID)
		}
	}
	for _, e := range c.edges {
		if e.PricePerLinearFt.IsNegative() {
			return fmt.Errorf("%w: edge %q", ErrNegativePrice, e.ID)
		}
	}
	for _, a := range c.accessories {
		if a.Price.IsNegative() {
			return fmt.Errorf("%w: accessory %q", ErrNegativePrice, a.ID)
		}
	}
	return nil
}
