package model

import "strings"

// Category represents a spending category as stored by the backing store.
// The ID is opaque: a UUID for the REST store, a stringified integer for SQLite.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FindCategoryByName returns the first category whose name equals name,
// ignoring case, or nil if none does.
func FindCategoryByName(categories []Category, name string) *Category {
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i]
		}
	}
	return nil
}
