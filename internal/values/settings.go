package values

import (
	"fmt"

	"github.com/ethos-ledger/ethos/internal/apperr"
)

// Settings holds a user's per-category levels under the fixed budget.
type Settings struct {
	Levels map[string]int `json:"levels"`
	Order  []string       `json:"order"` // tie-break order when points move between categories
}

// NewSettings returns all-neutral settings in canonical order.
func NewSettings() Settings {
	levels := make(map[string]int, len(categories))
	for _, c := range categories {
		levels[c.ID] = NeutralLevel
	}
	return Settings{Levels: levels, Order: CategoryIDs()}
}

// Reset returns the default settings; the receiver is ignored.
func (s Settings) Reset() Settings {
	return NewSettings()
}

// Sum returns the total of all category levels.
func (s Settings) Sum() int {
	total := 0
	for _, c := range categories {
		total += s.Level(c.ID)
	}
	return total
}

// Level returns the level of id, neutral when unset.
func (s Settings) Level(id string) int {
	if l, ok := s.Levels[id]; ok {
		return l
	}
	return NeutralLevel
}

// Clone returns a deep copy with every category present and a usable order.
func (s Settings) Clone() Settings {
	out := Settings{Levels: make(map[string]int, len(categories))}
	for _, c := range categories {
		out.Levels[c.ID] = s.Level(c.ID)
	}
	if checkPermutation(s.Order) == nil {
		out.Order = append([]string(nil), s.Order...)
	} else {
		out.Order = CategoryIDs()
	}
	return out
}

// UpdateLevel sets categoryID to level and moves points between the other
// categories so that Sum() stays equal to Budget(). Overflow is reclaimed from
// the last categories in Order first, each down to MinLevel; a deficit is
// handed to the first categories in Order, each up to MaxLevel.
// The receiver is not modified.
func (s Settings) UpdateLevel(categoryID string, level int) (Settings, error) {
	if !Exists(categoryID) {
		return s, apperr.Invalid("category", categoryID, "unknown value category")
	}
	if level < MinLevel || level > MaxLevel {
		return s, apperr.Invalid("level", level, fmt.Sprintf("must be between %d and %d", MinLevel, MaxLevel))
	}

	next := s.Clone()
	if next.Levels[categoryID] == level {
		return next, nil
	}
	next.Levels[categoryID] = level

	diff := next.Sum() - Budget()
	switch {
	case diff > 0:
		for i := len(next.Order) - 1; i >= 0 && diff > 0; i-- {
			id := next.Order[i]
			if id == categoryID {
				continue
			}
			give := min(next.Levels[id]-MinLevel, diff)
			next.Levels[id] -= give
			diff -= give
		}
	case diff < 0:
		deficit := -diff
		for _, id := range next.Order {
			if deficit == 0 {
				break
			}
			if id == categoryID {
				continue
			}
			take := min(MaxLevel-next.Levels[id], deficit)
			next.Levels[id] += take
			deficit -= take
		}
	}
	return next, nil
}

// Reorder replaces Order with newOrder, which must be a permutation of the
// category ids. On error the receiver's order is returned unchanged.
func (s Settings) Reorder(newOrder []string) (Settings, error) {
	if err := checkPermutation(newOrder); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Order = append([]string(nil), newOrder...)
	return next, nil
}

// Validate checks stored settings: all categories present, levels in range,
// the budget met and a well-formed order.
func (s Settings) Validate() error {
	for _, c := range categories {
		l, ok := s.Levels[c.ID]
		if !ok {
			return apperr.Invalid("levels", c.ID, "missing category")
		}
		if l < MinLevel || l > MaxLevel {
			return apperr.Invalid("level", l, fmt.Sprintf("category %s out of range", c.ID))
		}
	}
	for id := range s.Levels {
		if !Exists(id) {
			return apperr.Invalid("levels", id, "unknown value category")
		}
	}
	if sum := s.Sum(); sum != Budget() {
		return apperr.Invalid("levels", sum, fmt.Sprintf("sum must equal budget %d", Budget()))
	}
	return checkPermutation(s.Order)
}

func checkPermutation(order []string) error {
	if len(order) != len(categories) {
		return apperr.Invalid("order", len(order), fmt.Sprintf("must list all %d categories", len(categories)))
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !Exists(id) {
			return apperr.Invalid("order", id, "unknown value category")
		}
		if seen[id] {
			return apperr.Invalid("order", id, "duplicate category")
		}
		seen[id] = true
	}
	return nil
}
