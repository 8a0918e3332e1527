package model

// Category groups inspection findings (`categories`).
type Category struct {
	Base
	Name        string  `json:"name"`        // categories.name
	Description *string `json:"description"` // categories.description
}

// SubCategory refines a Category (`sub_categories`).  Its identifying
// string is the subcategory column itself.
type SubCategory struct {
	Base
	CategoryID  int64   `json:"category_id"` // sub_categories.category_id -> categories.id
	SubCategory string  `json:"subcategory"` // sub_categories.subcategory
	Description *string `json:"description"` // sub_categories.description
}
