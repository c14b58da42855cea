package model

import "time"

// 追加時点の商品表示情報
type ProductSnapshot struct {
	Name     string   `gorm:"type:varchar(255);not null" json:"name"`
	Price    float64  `gorm:"not null" json:"price"`
	Image    []byte   `gorm:"type:bytea" json:"image,omitempty"`
	Category Category `gorm:"type:varchar(20)" json:"category"`
}

// (user_id, product_id) は1行まで
type CartLine struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product,priority:1;index:idx_cart_user_added,priority:1" json:"userId"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_cart_user_product,priority:2" json:"productId"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Product   ProductSnapshot `gorm:"embedded;embeddedPrefix:product_" json:"product"`
	AddedAt   time.Time       `gorm:"not null;index:idx_cart_user_added,priority:2" json:"addedDate"`
}
