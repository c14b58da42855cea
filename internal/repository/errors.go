package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反
	ErrDuplicate = errors.New("duplicate")
	// 書き込みが反映されなかった
	ErrNotPersisted = errors.New("not persisted")
)

// 一覧取得のページ指定。Indexは0始まり
type Page struct {
	Index int
	Size  int
}

func (p Page) Offset() int {
	return p.Index * p.Size
}
