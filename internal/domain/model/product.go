package model

import "time"

// ProductIDは画面やURLで使う連番。IDはストレージ上の識別子。
type Product struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ProductID   int64     `gorm:"uniqueIndex;not null" json:"productId"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Category    Category  `gorm:"type:varchar(20);not null;index" json:"category"`
	Image       []byte    `gorm:"type:bytea" json:"image,omitempty"`
	AuthorID    string    `gorm:"type:varchar(36);not null;index" json:"authorId"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// 名前付きの採番カウンタ
type Sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(50)"`
	Value int64  `gorm:"not null"`
}

const SequenceProducts = "products"
