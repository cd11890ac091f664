package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/catalog"
)

// Configuration is a table configuration. Every field is optional while a
// configuration is being edited: empty ids and zero dimensions are treated as
// unset. CalculatedPrice is derived and must be refreshed with Reprice.
type Configuration struct {
	ID              string          `json:"id,omitempty"`
	BaseSeries      string          `json:"baseSeries" validate:"required"`
	Height          string          `json:"height" validate:"required"`
	Finish          string          `json:"finish" validate:"required"`
	IsChrome        bool            `json:"isChrome"`
	Folding         bool            `json:"folding"`
	FlipTop         bool            `json:"flipTop"`
	Nesting         bool            `json:"nesting"`
	FootRing        bool            `json:"footRing"`
	TopShape        string          `json:"topShape" validate:"required"`
	TopWidth        decimal.Decimal `json:"topWidth"`
	TopDepth        decimal.Decimal `json:"topDepth"`
	TopMaterial     string          `json:"topMaterial" validate:"required"`
	LaminateID      string          `json:"laminateId,omitempty"`
	EdgeType        string          `json:"edgeType" validate:"required"`
	Accessories     []string        `json:"accessories"`
	CalculatedPrice decimal.Decimal `json:"calculatedPrice"`
}

// Lookup is the subset of the catalog the price function reads.
type Lookup interface {
	Base(id string) (catalog.BaseSeries, bool)
	Height(id string) (catalog.HeightOption, bool)
	Shape(id string) (catalog.TopShape, bool)
	Material(id string) (catalog.TopMaterial, bool)
	Edge(id string) (catalog.EdgeOption, bool)
	Accessory(id string) (catalog.Accessory, bool)
}

// Catalog extends Lookup with the unpriced tables used for validation.
type Catalog interface {
	Lookup
	Finish(id string) (catalog.FinishColor, bool)
	Laminate(id string) (catalog.Laminate, bool)
}

// HasTop reports whether both top dimensions are present.
func (c Configuration) HasTop() bool {
	return !c.TopWidth.IsZero() && !c.TopDepth.IsZero()
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	out := c
	if c.Accessories != nil {
		out.Accessories = append([]string(nil), c.Accessories...)
	}
	return out
}

// Reprice returns a copy of cfg with CalculatedPrice recomputed.
func Reprice(cfg Configuration, cat Lookup) Configuration {
	out := cfg.Clone()
	out.CalculatedPrice = Price(out, cat)
	return out
}

// DefaultConfiguration is the starting point offered by the configurator.
func DefaultConfiguration() Configuration {
	return Configuration{
		BaseSeries:  "foundation",
		Height:      "standard-29",
		Finish:      "black",
		TopShape:    "rectangle",
		TopWidth:    decimal.NewFromInt(60),
		TopDepth:    decimal.NewFromInt(30),
		TopMaterial: "hpl",
		EdgeType:    "3p-standard",
		Accessories: []string{},
	}
}
