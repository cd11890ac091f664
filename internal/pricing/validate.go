package pricing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrIncompleteConfiguration is the sentinel wrapped by every ValidationError.
var ErrIncompleteConfiguration = errors.New("pricing: configuration is incomplete")

// Problem is a single reason a configuration cannot be quoted.
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrIncompleteConfiguration, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrIncompleteConfiguration }

// Fields returns the problems keyed by field, suitable for error details.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Problems))
	for _, p := range e.Problems {
		if _, seen := out[p.Field]; !seen {
			out[p.Field] = p.Reason
		}
	}
	return out
}

var (
	validateOnce sync.Once
	structs      *validator.Validate
)

func validate() *validator.Validate {
	validateOnce.Do(func() {
		structs = validator.New(validator.WithRequiredStructEnabled())
		structs.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structs
}

// Validate checks that a configuration is complete and priceable: required
// ids are set and known, dimensions are positive, the height option is
// offered by the base and the base supports every enabled feature. Price
// stays lenient; Validate gates configurations entering a quote.
func Validate(cfg Configuration, cat Catalog) error {
	var problems []Problem
	report := func(field, reason string) {
		problems = append(problems, Problem{Field: field, Reason: reason})
	}

	if err := validate().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("pricing: validate configuration: %w", err)
		}
		for _, fe := range verrs {
			report(fe.Field(), "is required")
		}
	}

	base, baseOK := cat.Base(cfg.BaseSeries)
	if cfg.BaseSeries != "" && !baseOK {
		report("baseSeries", "unknown base series")
	}
	if cfg.Height != "" {
		if _, ok := cat.Height(cfg.Height); !ok {
			report("height", "unknown height option")
		} else if baseOK && !base.AllowsHeight(cfg.Height) {
			report("height", "not offered for base series "+base.ID)
		}
	}
	if cfg.Finish != "" {
		if _, ok := cat.Finish(cfg.Finish); !ok {
			report("finish", "unknown finish")
		}
	}
	if cfg.TopShape != "" {
		if _, ok := cat.Shape(cfg.TopShape); !ok {
			report("topShape", "unknown top shape")
		}
	}
	if cfg.TopMaterial != "" {
		if _, ok := cat.Material(cfg.TopMaterial); !ok {
			report("topMaterial", "unknown top material")
		}
	}
	if cfg.EdgeType != "" {
		if _, ok := cat.Edge(cfg.EdgeType); !ok {
			report("edgeType", "unknown edge type")
		}
	}
	if cfg.LaminateID != "" {
		if _, ok := cat.Laminate(cfg.LaminateID); !ok {
			report("laminateId", "unknown laminate")
		}
	}
	if !cfg.TopWidth.IsPositive() {
		report("topWidth", "must be greater than zero")
	}
	if !cfg.TopDepth.IsPositive() {
		report("topDepth", "must be greater than zero")
	}
	for i, id := range cfg.Accessories {
		if _, ok := cat.Accessory(id); !ok {
			report(fmt.Sprintf("accessories[%d]", i), "unknown accessory "+id)
		}
	}

	if baseOK {
		if cfg.IsChrome && !base.SupportsChrome {
			report("isChrome", "chrome is not available for "+base.ID)
		}
		if cfg.Folding && !base.SupportsFolding {
			report("folding", "folding is not available for "+base.ID)
		}
		if cfg.FlipTop && !base.SupportsFlipTop {
			report("flipTop", "flip-top is not available for "+base.ID)
		}
		if cfg.Nesting && !base.SupportsNesting {
			report("nesting", "nesting is not available for "+base.ID)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
