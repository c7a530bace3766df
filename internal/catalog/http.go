package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

const (
	maxBody      = 1 << 20
	readyTimeout = 1 * time.Second

	// client went away before the response was written
	statusClientClosedRequest = 499
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// WriteLimit guards POST, PUT and DELETE when set.
	WriteLimit func(http.Handler) http.Handler
}

type messageResponse struct {
	Message string   `json:"message"`
	Product *Product `json:"product,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", s.list)
		pr.Get("/{id}", s.get)

		pr.Group(func(wr chi.Router) {
			if s.WriteLimit != nil {
				wr.Use(s.WriteLimit)
			}
			wr.Post("/", s.create)
			wr.Put("/{id}", s.update)
			wr.Delete("/{id}", s.delete)
		})
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeStoreError(w, r, err, "list products failed")
		return
	}

	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "list products failed")
		return
	}
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "get product failed", zap.Int("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := decodeBody(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := validate.Struct(in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product", validationDetails(err))
		return
	}

	p, err := s.Store.Add(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err, "add product failed")
		return
	}
	kit.WriteJSON(w, http.StatusCreated, messageResponse{Message: "product created", Product: &p})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch ProductPatch
	if err := decodeBody(w, r, &patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := validate.Struct(patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product", validationDetails(err))
		return
	}

	p, err := s.Store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeStoreError(w, r, err, "update product failed", zap.Int("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, messageResponse{Message: "product updated", Product: &p})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err, "delete product failed", zap.Int("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, messageResponse{Message: "product deleted"})
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	case errors.Is(err, ErrInvalidInput):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		s.logger().Debug(msg, append(fields, zap.Error(err))...)
		kit.WriteError(w, r, statusClientClosedRequest, "request canceled", nil)
	case errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.logger().Error(msg, append(fields, zap.Error(err))...)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// parseLimit returns 0 when no limit was requested.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer, got %q", ErrInvalidInput, raw)
	}
	return n, nil
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
