package catalog

// Catalog is an immutable, id-indexed snapshot of the reference tables.
// Build one with Load, LoadFile or Default; callers must not mutate the
// slices returned by the accessors.
type Catalog struct {
	bases       []BaseSeries
	heights     []HeightOption
	finishes    []FinishColor
	shapes      []TopShape
	materials   []TopMaterial
	edges       []EdgeOption
	accessories []Accessory
	laminates   []Laminate

	baseByID      map[string]int
	heightByID    map[string]int
	finishByID    map[string]int
	shapeByID     map[string]int
	materialByID  map[string]int
	edgeByID      map[string]int
	accessoryByID map[string]int
	laminateByID  map[string]int
}

// Tables is the serialisable form of a catalog.
type Tables struct {
	Bases       []BaseSeries   `yaml:"bases" json:"bases"`
	Heights     []HeightOption `yaml:"heights" json:"heights"`
	Finishes    []FinishColor  `yaml:"finishes" json:"finishes"`
	Shapes      []TopShape     `yaml:"shapes" json:"shapes"`
	Materials   []TopMaterial  `yaml:"materials" json:"materials"`
	Edges       []EdgeOption   `yaml:"edges" json:"edges"`
	Accessories []Accessory    `yaml:"accessories" json:"accessories"`
	Laminates   []Laminate     `yaml:"laminates" json:"laminates"`
}

// Tables returns the catalog contents in their original order.
func (c *Catalog) Tables() Tables {
	return Tables{
		Bases:       c.bases,
		Heights:     c.heights,
		Finishes:    c.finishes,
		Shapes:      c.shapes,
		Materials:   c.materials,
		Edges:       c.edges,
		Accessories: c.accessories,
		Laminates:   c.laminates,
	}
}

func (c *Catalog) Bases() []BaseSeries      { return c.bases }
func (c *Catalog) Heights() []HeightOption  { return c.heights }
func (c *Catalog) Finishes() []FinishColor  { return c.finishes }
func (c *Catalog) Shapes() []TopShape       { return c.shapes }
func (c *Catalog) Materials() []TopMaterial { return c.materials }
func (c *Catalog) Edges() []EdgeOption      { return c.edges }
func (c *Catalog) Accessories() []Accessory { return c.accessories }
func (c *Catalog) Laminates() []Laminate    { return c.laminates }

// AccessoriesByCategory filters accessories, preserving catalog order.
func (c *Catalog) AccessoriesByCategory(category string) []Accessory {
	if category == "" {
		return c.accessories
	}
	out := make([]Accessory, 0, len(c.accessories))
	for _, a := range c.accessories {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// Base looks up a base series by id.
func (c *Catalog) Base(id string) (BaseSeries, bool) {
	i, ok := c.baseByID[id]
	if !ok {
		return BaseSeries{}, false
	}
	return c.bases[i], true
}

// Height looks up a height option by id.
func (c *Catalog) Height(id string) (HeightOption, bool) {
	i, ok := c.heightByID[id]
	if !ok {
		return HeightOption{}, false
	}
	return c.heights[i], true
}

// Finish looks up a finish color by id.
func (c *Catalog) Finish(id string) (FinishColor, bool) {
	i, ok := c.finishByID[id]
	if !ok {
		return FinishColor{}, false
	}
	return c.finishes[i], true
}

// Shape looks up a top shape by id.
func (c *Catalog) Shape(id string) (TopShape, bool) {
	i, ok := c.shapeByID[id]
	if !ok {
		return TopShape{}, false
	}
	return c.shapes[i], true
}

// Material looks up a top material by id.
func (c *Catalog) Material(id string) (TopMaterial, bool) {
	i, ok := c.materialByID[id]
	if !ok {
		return TopMaterial{}, false
	}
	return c.materials[i], true
}

// Edge looks up an edge option by id.
func (c *Catalog) Edge(id string) (EdgeOption, bool) {
	i, ok := c.edgeByID[id]
	if !ok {
		return EdgeOption{}, false
	}
	return c.edges[i], true
}

// Accessory looks up an accessory by id.
func (c *Catalog) Accessory(id string) (Accessory, bool) {
	i, ok := c.accessoryByID[id]
	if !ok {
		return Accessory{}, false
	}
	return c.accessories[i], true
}

// Laminate looks up an HPL laminate by id.
func (c *Catalog) Laminate(id string) (Laminate, bool) {
	i, ok := c.laminateByID[id]
	if !ok {
		return Laminate{}, false
	}
	return c.laminates[i], true
}

// HeightsFor resolves the height option records offered by a base series.
// Unknown height ids are skipped.
func (c *Catalog) HeightsFor(base BaseSeries) []HeightOption {
	out := make([]HeightOption, 0, len(base.HeightOptions))
	for _, id := range base.HeightOptions {
		if h, ok := c.Height(id); ok {
			out = append(out, h)
		}
	}
	return out
}
