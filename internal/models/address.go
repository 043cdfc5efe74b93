package models

import "gorm.io/gorm"

// Address is a delivery address owned by exactly one user. Orders reference
// an address by ID, so later edits remain visible on old orders.
type Address struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string `json:"user_id" gorm:"index;not null;type:varchar(36)"`
	PostalCode   string `json:"postal_code" gorm:"type:varchar(9)"`
	Street       string `json:"street" gorm:"type:varchar(100)"`
	Number       string `json:"number" gorm:"type:varchar(10)"`
	Complement   string `json:"complement" gorm:"type:varchar(50)"`
	Neighborhood string `json:"neighborhood" gorm:"type:varchar(50)"`
	City         string `json:"city" gorm:"type:varchar(50)"`
	State        string `json:"state" gorm:"type:varchar(2)"`
	gorm.Model
}
