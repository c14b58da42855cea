package handler

import (
	"encoding/json"
	"errors"
	"strconv"

	repo "storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

const defaultPageSize = 20

// 一覧の絞り込み。?filter={...}のJSONか、個別のクエリで受け取る
type listFilter struct {
	PageIndex int      `json:"pageIndex"`
	PageSize  int      `json:"pageSize"`
	SortField string   `json:"sortField"`
	SortOrder string   `json:"sortOrder"`
	Category  string   `json:"category"`
	MinPrice  *float64 `json:"minPrice"`
	MaxPrice  *float64 `json:"maxPrice"`
}

func (f listFilter) page() repo.Page {
	return repo.Page{Index: f.PageIndex, Size: f.PageSize}
}

func parseListFilter(c echo.Context) (listFilter, error) {
	f := listFilter{PageSize: defaultPageSize}

	if raw := c.QueryParam("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return listFilter{}, errors.New("invalid filter")
		}
		return f, nil
	}

	var err error
	if f.PageIndex, err = intQuery(c, "pageIndex", 0); err != nil {
		return listFilter{}, err
	}
	if f.PageSize, err = intQuery(c, "pageSize", defaultPageSize); err != nil {
		return listFilter{}, err
	}
	f.SortField = c.QueryParam("sortField")
	f.SortOrder = c.QueryParam("sortOrder")
	f.Category = c.QueryParam("category")

	if f.MinPrice, err = floatQuery(c, "minPrice"); err != nil {
		return listFilter{}, err
	}
	if f.MaxPrice, err = floatQuery(c, "maxPrice"); err != nil {
		return listFilter{}, err
	}
	return f, nil
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func floatQuery(c echo.Context, name string) (*float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	return &x, nil
}
