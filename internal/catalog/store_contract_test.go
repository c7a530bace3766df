package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductCatalog/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func keyboard() catalog.ProductInput {
	return catalog.ProductInput{
		Title:       "Keyboard",
		Description: "Mechanical, 87 keys",
		Price:       49.9,
		Thumbnail:   "img/keyboard.png",
		Code:        "KB-87",
		Status:      true,
		Stock:       12,
	}
}

func mouse() catalog.ProductInput {
	return catalog.ProductInput{
		Title:       "Mouse",
		Description: "Wireless",
		Price:       19.9,
		Thumbnail:   "img/mouse.png",
		Code:        "MS-01",
		Status:      true,
		Stock:       40,
	}
}

func withID(in catalog.ProductInput, id int) catalog.Product {
	return catalog.Product{
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

// testStoreContract exercises behaviour every Store implementation shares.
// newStore must return an empty store.
func testStoreContract(t *testing.T, newStore func(t *testing.T) catalog.Store) {
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)

		products, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})

	t.Run("add then get round trip", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Add(ctx, keyboard())
		require.NoError(t, err)
		assert.Equal(t, withID(keyboard(), created.ID), created)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("ids are unique and list keeps insertion order", func(t *testing.T) {
		s := newStore(t)

		seen := map[int]bool{}
		var ids []int
		for i := 0; i < 10; i++ {
			p, err := s.Add(ctx, mouse())
			require.NoError(t, err)
			require.False(t, seen[p.ID], "duplicate id %d", p.ID)
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}

		products, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, products, len(ids))
		for i, p := range products {
			assert.Equal(t, ids[i], p.ID)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(ctx, 42)
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("update merges only supplied fields", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Add(ctx, keyboard())
		require.NoError(t, err)

		updated, err := s.Update(ctx, created.ID, catalog.ProductPatch{Price: ptr(50.0)})
		require.NoError(t, err)

		want := created
		want.Price = 50
		assert.Equal(t, want, updated)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("update can clear fields", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Add(ctx, keyboard())
		require.NoError(t, err)

		updated, err := s.Update(ctx, created.ID, catalog.ProductPatch{Status: ptr(false), Stock: ptr(0), Title: ptr("")})
		require.NoError(t, err)
		assert.False(t, updated.Status)
		assert.Zero(t, updated.Stock)
		assert.Empty(t, updated.Title)
		assert.Equal(t, created.Code, updated.Code)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Update(ctx, 7, catalog.ProductPatch{Title: ptr("x")})
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("delete then get", func(t *testing.T) {
		s := newStore(t)

		a, err := s.Add(ctx, keyboard())
		require.NoError(t, err)
		b, err := s.Add(ctx, mouse())
		require.NoError(t, err)
		c, err := s.Add(ctx, keyboard())
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, b.ID))

		_, err = s.Get(ctx, b.ID)
		assert.ErrorIs(t, err, catalog.ErrNotFound)

		products, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []catalog.Product{a, c}, products)
	})

	t.Run("delete missing", func(t *testing.T) {
		s := newStore(t)

		err := s.Delete(ctx, 3)
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(ctx))
	})
}
