// Package menu holds the meal plan domain model and the decoding of
// model output into it.
package menu

// PlanDays is the fixed number of days a generated plan must cover.
const PlanDays = 3

// DayMenu is the menu for a single day of the plan.
type DayMenu struct {
	Day          int    `json:"day"`
	MainDish     string `json:"main_dish"`
	SideDish     string `json:"side_dish"`
	Instructions string `json:"instructions"`
}

// MenuPlan is a full three-day plan plus the shopping list of items to buy.
type MenuPlan struct {
	Days         []DayMenu `json:"days"`
	ShoppingList []string  `json:"shopping_list"`
}
