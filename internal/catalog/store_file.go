package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// FileStore keeps the catalog as a JSON array in a single file.
//
// Nothing is cached: every call reads the file again, and every mutation
// rewrites the whole catalog through a temp file and rename. The mutex
// serializes read-modify-write cycles, so the file must not be shared with
// another FileStore or process.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	st, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// created on first write
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrStorageRead, filepath.Dir(s.path))
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

func (s *FileStore) Get(ctx context.Context, id int) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	products, err := s.load()
	if err != nil {
		return Product{}, err
	}

	i := indexOf(products, id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	return products[i], nil
}

func (s *FileStore) Add(ctx context.Context, in ProductInput) (Product, error) {
	var created Product

	err := s.mutate(ctx, func(products []Product) ([]Product, error) {
		id, err := nextID(products)
		if err != nil {
			return nil, err
		}
		created = in.product(id)
		return append(products, created), nil
	})
	if err != nil {
		return Product{}, err
	}
	return created, nil
}

func (s *FileStore) Update(ctx context.Context, id int, patch ProductPatch) (Product, error) {
	var updated Product

	err := s.mutate(ctx, func(products []Product) ([]Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		updated = patch.Apply(products[i])
		products[i] = updated
		return products, nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

func (s *FileStore) Delete(ctx context.Context, id int) error {
	return s.mutate(ctx, func(products []Product) ([]Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(products[:i], products[i+1:]...), nil
	})
}

// mutate runs one read-modify-write cycle under the write lock.
func (s *FileStore) mutate(ctx context.Context, fn func([]Product) ([]Product, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return err
	}

	products, err = fn(products)
	if err != nil {
		return err
	}
	return s.save(products)
}

func (s *FileStore) load() ([]Product, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Product{}, nil
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStorageRead, s.path, err)
	}
	if products == nil {
		// literal "null"
		return nil, fmt.Errorf("%w: %s does not hold a product array", ErrStorageRead, s.path)
	}

	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate id %d", ErrStorageRead, s.path, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}

func (s *FileStore) save(products []Product) error {
	raw, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStorageWrite, err)
	}
	raw = append(raw, '\n')

	if err := writeFileAtomic(s.path, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
