package models

import "gorm.io/gorm"

// Category groups products. A category cannot be deleted while it still
// owns products.
type Category struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string `json:"name" gorm:"uniqueIndex;type:varchar(50)" validate:"required,min=2,max=50"`
	Slug        string `json:"slug" gorm:"uniqueIndex;type:varchar(60)"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	gorm.Model
}
