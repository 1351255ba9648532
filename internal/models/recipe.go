package models

// Recipe links a sellable product to the materials it consumes.
type Recipe struct {
	RecipeID  int64 `json:"recipe_id"`
	ProductID int64 `json:"product_id"`
}

// RecipeMaterial is one material requirement within a recipe: Quantity units
// of the material are consumed per product sold.
type RecipeMaterial struct {
	RecipeID   int64   `json:"recipe_id"`
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}
