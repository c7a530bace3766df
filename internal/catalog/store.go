package catalog

import (
	"context"
	"fmt"
	"math"
)

type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	Code        string  `json:"code"`
	Status      bool    `json:"status"`
	Stock       int     `json:"stock"`
}

// ProductInput carries the client-settable fields of a new product.
type ProductInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Thumbnail   string  `json:"thumbnail"`
	Code        string  `json:"code"`
	Status      bool    `json:"status"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

func (in ProductInput) product(id int) Product {
	return Product{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Thumbnail:   in.Thumbnail,
		Code:        in.Code,
		Status:      in.Status,
		Stock:       in.Stock,
	}
}

// ProductPatch is a partial update. Nil fields are left untouched.
// There is deliberately no ID field: a product's id never changes.
type ProductPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Thumbnail   *string  `json:"thumbnail,omitempty"`
	Code        *string  `json:"code,omitempty"`
	Status      *bool    `json:"status,omitempty"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

func (p ProductPatch) Apply(dst Product) Product {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Thumbnail != nil {
		dst.Thumbnail = *p.Thumbnail
	}
	if p.Code != nil {
		dst.Code = *p.Code
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	return dst
}

// Store is the catalog persistence contract. Implementations return
// ErrNotFound, ErrStorageRead or ErrStorageWrite (possibly wrapped).
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, error)
	Add(ctx context.Context, in ProductInput) (Product, error)
	Update(ctx context.Context, id int, patch ProductPatch) (Product, error)
	Delete(ctx context.Context, id int) error
}

// nextID is one past the highest id. It fails once that id is math.MaxInt
// instead of wrapping into ids that may already exist.
func nextID(products []Product) (int, error) {
	highest := 0
	for _, p := range products {
		if p.ID > highest {
			highest = p.ID
		}
	}
	if highest == math.MaxInt {
		return 0, fmt.Errorf("%w: id space exhausted", ErrStorageWrite)
	}
	return highest + 1, nil
}

func indexOf(products []Product, id int) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
