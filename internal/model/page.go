package model

import "context"

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortOrder struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
	NullsLast bool      `json:"nulls_last,omitempty"`
}

type PageRequest struct {
	Page int         `json:"page" validate:"gte=0,lte=1000000"`
	Size int         `json:"size" validate:"gte=1"`
	Sort []SortOrder `json:"sort,omitempty"`
}

func NewPageRequest(page, size int, sort ...SortOrder) PageRequest {
	return PageRequest{Page: page, Size: size, Sort: sort}
}

func (p PageRequest) Offset() int64 {
	return int64(p.Page) * int64(p.Size)
}

type Page[T any] struct {
	Content []T   `json:"content"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Total   int64 `json:"total"`
}

func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content: content,
		Page:    req.Page,
		Size:    req.Size,
		Total:   total,
	}
}

// PageOf builds a page and calls count only when the total cannot be derived from content:
// a short first page holds everything, and a short non-empty later page is the last one.
func PageOf[T any](ctx context.Context, content []T, req PageRequest, count func(ctx context.Context) (int64, error)) (*Page[T], error) {
	n := len(content)

	if req.Offset() == 0 {
		if req.Size > n {
			return NewPage(content, req, int64(n)), nil
		}
	} else if n != 0 && req.Size > n {
		return NewPage(content, req, req.Offset()+int64(n)), nil
	}

	total, err := count(ctx)
	if err != nil {
		return nil, err
	}
	return NewPage(content, req, total), nil
}

// Map converts the content while keeping the paging metadata.
func Map[T, R any](p *Page[T], fn func(T) R) *Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return &Page[R]{Content: out, Page: p.Page, Size: p.Size, Total: p.Total}
}

func (p *Page[T]) NumberOfElements() int {
	return len(p.Content)
}

func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 1
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

func (p *Page[T]) HasNext() bool {
	return p.Page+1 < p.TotalPages()
}

func (p *Page[T]) IsLast() bool {
	return !p.HasNext()
}
