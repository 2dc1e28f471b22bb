package server

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// Theme labels are advisory: suggested categories are hints for the catalog
// UI, never enforced against cart contents.
type Theme struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	SuggestedCategories []string `json:"suggested_categories"`
}

var gameThemes = []Theme{
	{
		Name:                "Retro Glam",
		Description:         "Channel vintage Hollywood glamour with classic pieces",
		SuggestedCategories: []string{"Dresses", "Blazers", "Accessories"},
	},
	{
		Name:                "Beach Party",
		Description:         "Fun and flowy outfits perfect for summer vibes",
		SuggestedCategories: []string{"Swimwear", "Shorts", "Sandals"},
	},
	{
		Name:                "Office Chic",
		Description:         "Professional yet stylish workwear",
		SuggestedCategories: []string{"Blazers", "Trousers", "Shirts"},
	},
	{
		Name:                "Gothic Romance",
		Description:         "Dark and dramatic pieces with romantic touches",
		SuggestedCategories: []string{"Dresses", "Boots", "Accessories"},
	},
	{
		Name:                "Kawaii Style",
		Description:         "Cute and colorful Japanese-inspired fashion",
		SuggestedCategories: []string{"Dresses", "Skirts", "Accessories"},
	},
	{
		Name:                "Streetwear",
		Description:         "Urban and trendy casual wear",
		SuggestedCategories: []string{"Hoodies", "Sneakers", "Jeans"},
	},
	{
		Name:                "Boho Chic",
		Description:         "Free-spirited and artistic bohemian style",
		SuggestedCategories: []string{"Dresses", "Jewelry", "Sandals"},
	},
	{
		Name:                "Cyber Punk",
		Description:         "Futuristic and edgy tech-inspired looks",
		SuggestedCategories: []string{"Jackets", "Boots", "Accessories"},
	},
}

var budgetTiers = []int64{50, 75, 100, 125, 150, 200}

func randomTheme() Theme {
	return gameThemes[rand.Intn(len(gameThemes))]
}

func randomBudget() decimal.Decimal {
	return decimal.NewFromInt(budgetTiers[rand.Intn(len(budgetTiers))])
}

func themeByName(name string) (Theme, bool) {
	for _, theme := range gameThemes {
		if theme.Name == name {
			return theme, true
		}
	}
	return Theme{}, false
}
