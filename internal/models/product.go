package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store. Stock is never negative; it is
// decremented only at order creation and restored on cancellation.
type Product struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string           `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Slug        string           `json:"slug" gorm:"uniqueIndex;type:varchar(120)"`
	Description string           `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal  `json:"price" gorm:"type:decimal(10,2)"`
	OldPrice    *decimal.Decimal `json:"old_price,omitempty" gorm:"type:decimal(10,2)"` // For discount display
	Stock       int              `json:"stock" validate:"gte=0"`
	Image       string           `json:"image,omitempty" gorm:"type:varchar(255)"`
	Active      bool             `json:"active" gorm:"default:true"`
	CategoryID  string           `json:"category_id" gorm:"index;type:varchar(36)"`
	gorm.Model
}

// DiscountPercent returns the discount over the prior price, or zero when
// no prior price is set or the product got more expensive.
func (p *Product) DiscountPercent() int {
	if p.OldPrice == nil || !p.OldPrice.GreaterThan(p.Price) {
		return 0
	}
	ratio := p.OldPrice.Sub(p.Price).Div(*p.OldPrice)
	return int(ratio.Mul(decimal.NewFromInt(100)).IntPart())
}
