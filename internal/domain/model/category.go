package model

import "strings"

type Category string

const (
	CategoryMen         Category = "men"
	CategoryWomen       Category = "women"
	CategoryJewelry     Category = "jewelry"
	CategoryElectronics Category = "electronics"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryJewelry, CategoryElectronics:
		return true
	default:
		return false
	}
}

// 大文字小文字は区別しない
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}
