package model

import (
	"time"

	"gorm.io/datatypes"
)

// 注文確定後に消すべきカート行の記録。注文と同じTxで作る
type CartCleanupTask struct {
	ID            string                     `gorm:"primaryKey;type:varchar(36)"`
	OrderID       string                     `gorm:"type:varchar(36);not null;index"`
	UserID        string                     `gorm:"type:varchar(36);not null"`
	ProductIDs    datatypes.JSONSlice[int64] `gorm:"type:jsonb;not null"`
	Attempts      int                        `gorm:"not null;default:0"`
	LastError     string                     `gorm:"type:text"`
	NextAttemptAt time.Time                  `gorm:"not null;index"`
	CreatedAt     time.Time                  `gorm:"not null;autoCreateTime"`
}
