package model

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusNotShipped OrderStatus = "NOT_SHIPPED"
	OrderStatusShipping   OrderStatus = "SHIPPING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusInDelivery OrderStatus = "IN_DELIVERY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusDelayed    OrderStatus = "DELAYED"
	OrderStatusLost       OrderStatus = "LOST"
)

type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Totalは作成時点の価格で確定する
type Order struct {
	ID           string                         `gorm:"primaryKey;type:varchar(36)" json:"orderId"`
	UserID       string                         `gorm:"type:varchar(36);not null;index:idx_orders_user_date,priority:1" json:"userId"`
	Lines        datatypes.JSONSlice[OrderLine] `gorm:"type:jsonb;not null" json:"products"`
	OrderDate    time.Time                      `gorm:"not null;index:idx_orders_user_date,priority:2" json:"orderDate"`
	DeliveryDate time.Time                      `gorm:"not null" json:"deliveryDate"`
	Status       OrderStatus                    `gorm:"type:varchar(20);not null" json:"status"`
	Total        float64                        `gorm:"not null" json:"totalPrice"`
}

func (o Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.Lines))
	for _, l := range o.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
