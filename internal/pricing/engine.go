package pricing

import "github.com/shopspring/decimal"

// Fixed upcharges for base features.
var (
	ChromeUpcharge   = decimal.NewFromInt(150)
	FoldingUpcharge  = decimal.NewFromInt(125)
	FlipTopUpcharge  = decimal.NewFromInt(145)
	NestingUpcharge  = decimal.NewFromInt(165)
	FootRingUpcharge = decimal.NewFromInt(125)
)

var (
	sqInchesPerSqFt = decimal.NewFromInt(144)
	inchesPerFoot   = decimal.NewFromInt(12)
	two             = decimal.NewFromInt(2)
	hundred         = decimal.NewFromInt(100)
	one             = decimal.NewFromInt(1)
)

// Component kinds reported in a Breakdown.
const (
	ComponentBase      = "base"
	ComponentHeight    = "height"
	ComponentChrome    = "chrome"
	ComponentFolding   = "folding"
	ComponentFlipTop   = "flip_top"
	ComponentNesting   = "nesting"
	ComponentFootRing  = "foot_ring"
	ComponentMaterial  = "material"
	ComponentShape     = "shape"
	ComponentEdge      = "edge"
	ComponentAccessory = "accessory"
)

// Component is one term added to the running price. For the shape term the
// amount is the increase produced by the multiplier.
type Component struct {
	Kind   string          `json:"kind"`
	ID     string          `json:"id,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// Breakdown explains a configuration price term by term.
type Breakdown struct {
	Components  []Component     `json:"components"`
	AreaSqFt    decimal.Decimal `json:"areaSqFt"`
	PerimeterFt decimal.Decimal `json:"perimeterFt"`
	Unrounded   decimal.Decimal `json:"unrounded"`
	Total       decimal.Decimal `json:"total"`
}

// Price computes the list price of a configuration. Unknown ids contribute
// nothing and missing dimensions skip every top term, so Price is defined for
// any partial configuration.
func Price(cfg Configuration, cat Lookup) decimal.Decimal {
	return Explain(cfg, cat).Total
}

// Explain runs the price computation and records each contribution.
//
// Order matters: the shape multiplier scales everything accumulated before
// it (base, height, upcharges and material), while edge and accessory costs
// are added afterwards and are never multiplied.
func Explain(cfg Configuration, cat Lookup) Breakdown {
	var (
		b     Breakdown
		price = decimal.Zero
	)
	add := func(kind, id string, amount decimal.Decimal) {
		price = price.Add(amount)
		b.Components = append(b.Components, Component{Kind: kind, ID: id, Amount: amount})
	}

	if base, ok := cat.Base(cfg.BaseSeries); ok {
		add(ComponentBase, base.ID, base.BasePrice)
	}
	if height, ok := cat.Height(cfg.Height); ok {
		add(ComponentHeight, height.ID, height.PriceAdder)
	}
	if cfg.IsChrome {
		add(ComponentChrome, "", ChromeUpcharge)
	}
	if cfg.Folding {
		add(ComponentFolding, "", FoldingUpcharge)
	}
	if cfg.FlipTop {
		add(ComponentFlipTop, "", FlipTopUpcharge)
	}
	if cfg.Nesting {
		add(ComponentNesting, "", NestingUpcharge)
	}
	if cfg.FootRing {
		add(ComponentFootRing, "", FootRingUpcharge)
	}

	if cfg.HasTop() {
		w, d := cfg.TopWidth, cfg.TopDepth
		b.AreaSqFt = w.Mul(d).Div(sqInchesPerSqFt)
		b.PerimeterFt = two.Mul(w.Add(d)).Div(inchesPerFoot)

		if material, ok := cat.Material(cfg.TopMaterial); ok {
			// multiply before dividing to keep the product exact
			add(ComponentMaterial, material.ID, w.Mul(d).Mul(material.PricePerSqFt).Div(sqInchesPerSqFt))
		}
		if shape, ok := cat.Shape(cfg.TopShape); ok {
			add(ComponentShape, shape.ID, price.Mul(shape.PriceMultiplier).Sub(price))
		}
		if edge, ok := cat.Edge(cfg.EdgeType); ok {
			add(ComponentEdge, edge.ID, two.Mul(w.Add(d)).Mul(edge.PricePerLinearFt).Div(inchesPerFoot))
		}
	}

	for _, id := range cfg.Accessories {
		if acc, ok := cat.Accessory(id); ok {
			add(ComponentAccessory, acc.ID, acc.Price)
		}
	}

	b.Unrounded = price
	b.Total = RoundCents(price)
	return b
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
