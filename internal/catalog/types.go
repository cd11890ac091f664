package catalog

import "github.com/shopspring/decimal"

// BaseSeries is a table base family with its list price and capability flags.
type BaseSeries struct {
	ID              string          `yaml:"id" json:"id"`
	Name            string          `yaml:"name" json:"name"`
	Description     string          `yaml:"description" json:"description"`
	BasePrice       decimal.Decimal `yaml:"basePrice" json:"basePrice"`
	SupportsFolding bool            `yaml:"supportsFolding" json:"supportsFolding"`
	SupportsFlipTop bool            `yaml:"supportsFlipTop" json:"supportsFlipTop"`
	SupportsNesting bool            `yaml:"supportsNesting" json:"supportsNesting"`
	SupportsChrome  bool            `yaml:"supportsChrome" json:"supportsChrome"`
	HeightOptions   []string        `yaml:"heightOptions" json:"heightOptions"`
	Image           string          `yaml:"image" json:"image,omitempty"`
}

// AllowsHeight reports whether the height option id is offered for this base.
func (b BaseSeries) AllowsHeight(id string) bool {
	for _, h := range b.HeightOptions {
		if h == id {
			return true
		}
	}
	return false
}

// HeightOption is a height mechanism priced as a flat adder.
type HeightOption struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	PriceAdder decimal.Decimal `yaml:"priceAdder" json:"priceAdder"`
}

// FinishColor is a powder-coat finish. Finishes carry no price.
type FinishColor struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Hex      string `yaml:"hex" json:"hex"`
	Category string `yaml:"category" json:"category"`
}

// TopShape multiplies the running price once top material has been added.
type TopShape struct {
	ID              string          `yaml:"id" json:"id"`
	Name            string          `yaml:"name" json:"name"`
	Icon            string          `yaml:"icon" json:"icon,omitempty"`
	PriceMultiplier decimal.Decimal `yaml:"priceMultiplier" json:"priceMultiplier"`
}

// TopMaterial is priced per square foot of top area.
type TopMaterial struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	Description  string          `yaml:"description" json:"description"`
	PricePerSqFt decimal.Decimal `yaml:"pricePerSqFt" json:"pricePerSqFt"`
}

// EdgeOption is priced per linear foot of top perimeter.
type EdgeOption struct {
	ID               string          `yaml:"id" json:"id"`
	Name             string          `yaml:"name" json:"name"`
	PricePerLinearFt decimal.Decimal `yaml:"pricePerLinearFt" json:"pricePerLinearFt"`
}

// Accessory categories.
const (
	CategoryPanel          = "panel"
	CategoryWireManagement = "wire-management"
	CategoryCaster         = "caster"
	CategoryPower          = "power"
	CategoryOther          = "other"
)

// Accessory is a flat-priced add-on.
type Accessory struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Category    string          `yaml:"category" json:"category"`
	Price       decimal.Decimal `yaml:"price" json:"price"`
	Description string          `yaml:"description" json:"description"`
}

// Laminate is an HPL pattern choice for hpl tops.
type Laminate struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Hex  string `yaml:"hex" json:"hex"`
}
