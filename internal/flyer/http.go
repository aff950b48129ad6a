package flyer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"Encarte/pkg/kit"
)

const maxCreateBody = 1 << 20

type Server struct {
	Store Store
	Pages *FormRenderer
	Log   *zap.Logger
}

type listResp struct {
	Items []Entry `json:"items"`
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	id, ok := kit.IdentityFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	in, err := decodeEntryInput(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	e, err := s.newEntry(r.Context(), in, id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, e)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	var cat Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, err := ParseCategory(raw)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		cat = c
	}

	entries, err := s.Store.List(r.Context(), cat)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, listResp{Items: entries})
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) newEntry(ctx context.Context, in EntryInput, who kit.Identity) (Entry, error) {
	e, err := in.Validate()
	if err != nil {
		return Entry{}, err
	}

	e.ID = "e_" + uuid.NewString()
	e.CreatedBy = who.Email
	if e.CreatedBy == "" {
		e.CreatedBy = who.UserID
	}
	e.CreatedAt = time.Now().UTC()

	if err := s.Store.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	s.logger().Info("flyer entry created",
		zap.String("entry_id", e.ID),
		zap.String("category", string(e.Category)),
		zap.String("user_id", who.UserID),
	)
	return e, nil
}

func decodeEntryInput(w http.ResponseWriter, r *http.Request) (EntryInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var in EntryInput
	if err := dec.Decode(&in); err != nil {
		return EntryInput{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return EntryInput{}, errors.New("extra data after json object")
	}
	return in, nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBadCategory):
		kit.WriteError(w, r, http.StatusBadRequest, "unknown category", nil)
	case errors.Is(err, ErrBadEntry):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.logger().Error("flyer store failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
