package values

import "github.com/shopspring/decimal"

// Level bounds. NeutralLevel maps to a 1.0x multiplier.
const (
	MinLevel     = 1
	MaxLevel     = 5
	NeutralLevel = 3
)

var multipliers = map[int]decimal.Decimal{
	1: decimal.Zero,
	2: decimal.RequireFromString("0.5"),
	3: decimal.NewFromInt(1),
	4: decimal.RequireFromString("1.25"),
	5: decimal.RequireFromString("1.5"),
}

// MultiplierForLevel returns the factor applied to a negative practice's debt
// for a category at level. Out-of-range levels clamp to the nearest bound.
func MultiplierForLevel(level int) decimal.Decimal {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return multipliers[level]
}

// MultiplierForCategory resolves categoryName and returns the multiplier for
// its current level. Unknown categories and nil settings are neutral.
// Ethical practices never go through this table.
func MultiplierForCategory(categoryName string, s *Settings) decimal.Decimal {
	c, ok := Lookup(categoryName)
	if !ok || s == nil {
		return decimal.NewFromInt(1)
	}
	level, ok := s.Levels[c.ID]
	if !ok {
		level = NeutralLevel
	}
	return MultiplierForLevel(level)
}
