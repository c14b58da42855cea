package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"productId"`
	UserID      string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Rating      int       `gorm:"not null" json:"rating"`
	Title       string    `gorm:"type:varchar(255)" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

// 集計値。保存はしない
type ReviewStats struct {
	ProductID int64   `json:"productId"`
	Count     int64   `json:"count"`
	Average   float64 `json:"average"`
}
