package httpapp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cesargomez89/discosync/internal/convert"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/store"
)

// DocumentStore is the slice of the record store the API reads and writes.
type DocumentStore interface {
	GetRaw(ctx context.Context, key store.Key) ([]byte, bool, error)
	SetRaw(ctx context.Context, key store.Key, data []byte) error
	Delete(ctx context.Context, key store.Key) error
	FindIDs(ctx context.Context, collection, field string, value any) ([]string, error)
}

type Handler struct {
	Store     DocumentStore
	Converter convert.TextConverter
	Logger    *logger.Logger
}

// NewHandler builds the API handler. A nil converter disables the
// simplified-script read variant.
func NewHandler(s DocumentStore, c convert.TextConverter, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Store:     s,
		Converter: c,
		Logger:    log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/albums/{id}", h.GetRecord(albums))
	r.Get("/disco/{id}", h.GetRecord(discographies))
	r.Get("/songs/{id}", h.GetRecord(songs))

	for _, k := range []recordKind{songs, albums, memberships, discographies} {
		r.Put(k.route+"/{id}", h.PutRecord(k))
		r.Delete(k.route+"/{id}", h.DeleteRecord(k))
	}

	r.Handle("/metrics", promhttp.Handler())
}

// NewRouter returns a chi router with request logging, panic recovery and
// every API route registered.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data []byte) {
	writeJSON(w, status, struct {
		Data json.RawMessage `json:"data"`
	}{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, struct {
		Error errorBody `json:"error"`
	}{Error: errorBody{Message: msg, Fields: fields}})
}
