package usecase

import (
	"context"
	"time"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 注文日からお届け予定日を決める
type DeliveryEstimator interface {
	Estimate(orderDate time.Time) time.Time
}

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "ORDER_CREATED"
	OrderEventCancelled OrderEventType = "ORDER_CANCELLED"
)

type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	OrderID    string         `json:"orderId"`
	UserID     string         `json:"userId"`
	Total      float64        `json:"totalPrice"`
	ProductIDs []int64        `json:"productIds"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// 注文イベントの送信。失敗しても注文は成立している
type OrderEventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// 上限値
type Limits struct {
	MaxQuantity int
	MaxPageSize int
}

func DefaultLimits() Limits {
	return Limits{MaxQuantity: 30, MaxPageSize: 100}
}
