package idgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type RealClock struct{}

func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// 注文日 + [minDays, maxDays] の一様乱数日
type RandomDeliveryEstimator struct {
	minDays int
	maxDays int
	intN    func(n int) int
}

func NewRandomDeliveryEstimator(minDays, maxDays int) *RandomDeliveryEstimator {
	return &RandomDeliveryEstimator{minDays: minDays, maxDays: maxDays, intN: rand.IntN}
}

func (e *RandomDeliveryEstimator) Estimate(orderDate time.Time) time.Time {
	days := e.minDays + e.intN(e.maxDays-e.minDays+1)
	return orderDate.AddDate(0, 0, days)
}
