package values

import "strings"

// Category is a fixed value area a user can weight.
type Category struct {
	ID           string
	DisplayName  string
	Emoji        string
	DefaultLevel int
	Description  string
}

var categories = []Category{
	{ID: "environment", DisplayName: "Environment", Emoji: "🌱", DefaultLevel: NeutralLevel, Description: "Emissions, deforestation, pollution and resource use"},
	{ID: "labor", DisplayName: "Labor Ethics", Emoji: "🤝", DefaultLevel: NeutralLevel, Description: "Wages, working conditions, union rights and supply-chain labor"},
	{ID: "animal_welfare", DisplayName: "Animal Welfare", Emoji: "🐾", DefaultLevel: NeutralLevel, Description: "Factory farming, animal testing and habitat harm"},
	{ID: "political", DisplayName: "Political Ethics", Emoji: "🏛️", DefaultLevel: NeutralLevel, Description: "Lobbying, political donations and regulatory capture"},
	{ID: "transparency", DisplayName: "Transparency", Emoji: "🔍", DefaultLevel: NeutralLevel, Description: "Tax avoidance, data practices and disclosure"},
}

var byKey = func() map[string]Category {
	m := make(map[string]Category, len(categories)*2)
	for _, c := range categories {
		m[strings.ToLower(c.ID)] = c
		m[strings.ToLower(c.DisplayName)] = c
	}
	return m
}()

// Categories returns the static category definitions in canonical order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// CategoryIDs returns the canonical order of category ids.
func CategoryIDs() []string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

// Lookup resolves a category by id or display name, case-insensitively.
func Lookup(nameOrID string) (Category, bool) {
	c, ok := byKey[strings.ToLower(strings.TrimSpace(nameOrID))]
	return c, ok
}

// Exists reports whether id is a defined category id.
func Exists(id string) bool {
	c, ok := byKey[strings.ToLower(id)]
	return ok && c.ID == id
}

// Budget is the fixed total that the levels of all categories must sum to.
func Budget() int {
	return len(categories) * NeutralLevel
}
