package httpapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/convert"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/store"
)

const maxBodyBytes = 1 << 20

// recordKind describes one editable collection.
type recordKind struct {
	name       string
	route      string
	collection string
	// hasID records carry their own id, which the path overrides.
	hasID bool
	// derived fields are maintained by the reconcilers; a PUT that omits
	// them keeps the stored value.
	derived  []string
	validate func(ctx context.Context, h *Handler, id string, body []byte) ([]domain.ValidationError, error)
}

var (
	songs = recordKind{
		name:       "song",
		route:      "/songs",
		collection: constants.SongsCollection,
		hasID:      true,
		validate:   validateBody[domain.Song],
	}
	albums = recordKind{
		name:       "album",
		route:      "/albums",
		collection: constants.AlbumsCollection,
		hasID:      true,
		derived:    []string{constants.TrackMapField},
		validate:   validateBody[domain.Album],
	}
	memberships = recordKind{
		name:       "membership",
		route:      "/songAlbums",
		collection: constants.SongAlbumsCollection,
		validate:   validateMembership,
	}
	discographies = recordKind{
		name:       "discography",
		route:      "/disco",
		collection: constants.DiscographiesCollection,
		hasID:      true,
		derived:    []string{"sections"},
		validate:   validateBody[domain.Discography],
	}
)

type validator interface {
	Validate() []domain.ValidationError
}

func decodeBody[T validator](body []byte) (T, []domain.ValidationError) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, []domain.ValidationError{{Field: "body", Message: err.Error()}}
	}
	return v, v.Validate()
}

func validateBody[T validator](_ context.Context, _ *Handler, _ string, body []byte) ([]domain.ValidationError, error) {
	_, errs := decodeBody[T](body)
	return errs, nil
}

// validateMembership also rejects track numbers another song already holds
// in the same album.
func validateMembership(ctx context.Context, h *Handler, songID string, body []byte) ([]domain.ValidationError, error) {
	m, errs := decodeBody[domain.Membership](body)
	if len(errs) > 0 {
		return errs, nil
	}
	for albumID, n := range m {
		ids, err := h.Store.FindIDs(ctx, constants.SongAlbumsCollection, albumID, n)
		if err != nil {
			return nil, err
		}
		for _, other := range ids {
			if other != songID {
				errs = append(errs, domain.ValidationError{
					Field:   albumID,
					Message: fmt.Sprintf("track %d is already taken by song %s", n, other),
				})
			}
		}
	}
	return errs, nil
}

// GetRecord serves a stored record. Store failures are reported as not
// found.
func (h *Handler) GetRecord(k recordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		key := store.Doc(k.collection, id)

		data, ok, err := h.Store.GetRaw(r.Context(), key)
		if err != nil {
			h.Logger.WithRecord(key.Collection, key.ID).Warn("Failed to read record", "error", err)
		}
		if err != nil || !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s not found: %s", k.name, id), nil)
			return
		}

		if r.URL.Query().Get(constants.ScriptParam) == constants.ScriptSimplified && h.Converter != nil {
			converted, err := convert.SimplifyTitles(data, h.Converter)
			if err != nil {
				h.Logger.WithRecord(key.Collection, key.ID).Warn("Failed to convert titles", "error", err)
			} else {
				data = converted
			}
		}

		writeData(w, http.StatusOK, data)
	}
}

// PutRecord replaces a record with the request body after validating it.
func (h *Handler) PutRecord(k recordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		key := store.Doc(k.collection, id)
		log := h.Logger.WithRecord(key.Collection, key.ID)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body", nil)
			return
		}
		if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object", nil)
			return
		}

		if k.hasID {
			if body, err = sjson.SetBytes(body, "id", id); err != nil {
				writeError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
		}

		if len(k.derived) > 0 {
			existing, ok, err := h.Store.GetRaw(r.Context(), key)
			if err != nil {
				log.Error("Failed to read record", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to read "+k.name, nil)
				return
			}
			if ok {
				if body, err = carryForward(body, existing, k.derived); err != nil {
					log.Error("Failed to keep derived fields", "error", err)
					writeError(w, http.StatusInternalServerError, "failed to prepare "+k.name, nil)
					return
				}
			}
		}

		errs, err := k.validate(r.Context(), h, id, body)
		if err != nil {
			log.Error("Failed to validate record", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to validate "+k.name, nil)
			return
		}
		if len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid "+k.name+": "+domain.ToResponse(errs), domain.ToMap(errs))
			return
		}

		if err := h.Store.SetRaw(r.Context(), key, body); err != nil {
			log.Error("Failed to write record", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to write "+k.name, nil)
			return
		}

		writeData(w, http.StatusOK, body)
	}
}

func carryForward(body, existing []byte, fields []string) ([]byte, error) {
	for _, f := range fields {
		if gjson.GetBytes(body, f).Exists() {
			continue
		}
		v := gjson.GetBytes(existing, f)
		if !v.Exists() {
			continue
		}
		var err error
		if body, err = sjson.SetRawBytes(body, f, []byte(v.Raw)); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// DeleteRecord removes a record. Deleting a missing record succeeds.
func (h *Handler) DeleteRecord(k recordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		key := store.Doc(k.collection, id)

		if err := h.Store.Delete(r.Context(), key); err != nil {
			h.Logger.WithRecord(key.Collection, key.ID).Error("Failed to delete record", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete "+k.name, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
