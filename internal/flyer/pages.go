package flyer

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Encarte/pkg/kit"
)

const (
	homePath  = "/flyer/general/new"
	adminPath = "/admin"
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.Pages.Auth(w, "login.html", "Entrar", q.Get("next"), q.Get("error"))
}

func (s *Server) signupPage(w http.ResponseWriter, r *http.Request) {
	s.Pages.Auth(w, "signup.html", "Criar conta", "", r.URL.Query().Get("error"))
}

func (s *Server) resetPage(w http.ResponseWriter, _ *http.Request) {
	s.Pages.Auth(w, "reset.html", "Recuperar senha", "", "")
}

func (s *Server) newForm(w http.ResponseWriter, r *http.Request) {
	cat, err := ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.Pages.Form(w, r, http.StatusOK, cat, formValues{}, "")
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	cat, err := ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	who, ok := kit.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	values := formValues{
		ProductName: r.PostForm.Get("product_name"),
		Price:       r.PostForm.Get("price"),
		Unit:        r.PostForm.Get("unit"),
		Notes:       r.PostForm.Get("notes"),
	}

	cents, err := ParsePriceCents(values.Price)
	if err != nil {
		s.Pages.Form(w, r, http.StatusBadRequest, cat, values, "Preço inválido.")
		return
	}

	_, err = s.newEntry(r.Context(), EntryInput{
		Category:    string(cat),
		ProductName: values.ProductName,
		PriceCents:  cents,
		Unit:        values.Unit,
		Notes:       values.Notes,
	}, who)
	switch {
	case err == nil:
		http.Redirect(w, r, adminPath, http.StatusSeeOther)
	case errors.Is(err, ErrBadEntry):
		s.Pages.Form(w, r, http.StatusBadRequest, cat, values, "Confira os dados do produto.")
	default:
		s.logger().Error("save flyer entry failed", zap.Error(err))
		s.Pages.Form(w, r, http.StatusInternalServerError, cat, values, "Não foi possível salvar. Tente novamente.")
	}
}

func (s *Server) deleteForm(w http.ResponseWriter, r *http.Request) {
	err := s.Store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger().Error("delete flyer entry failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, adminPath, http.StatusSeeOther)
}

func (s *Server) admin(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.List(r.Context(), "")
	if err != nil {
		s.logger().Error("list flyer entries failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	s.Pages.Admin(w, r, entries)
}

func (s *Server) public(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.List(r.Context(), "")
	if err != nil {
		s.logger().Error("list flyer entries failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	s.Pages.Public(w, entries)
}
