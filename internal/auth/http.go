package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Encarte/pkg/kit"
)

const (
	maxBodyBytes   = 1 << 20
	minPasswordLen = 8

	loginPath  = "/login"
	signupPath = "/signup"
	homePath   = "/"
)

// Error codes carried back to the HTML forms as ?error=.
const (
	formErrBadRequest = "bad_request"
	formErrMissing    = "missing"
	formErrShort      = "short_password"
	formErrExists     = "email_exists"
	formErrInvalid    = "invalid_credentials"
	formErrServer     = "server"
)

type Server struct {
	Log     *zap.Logger
	Store   UserStore
	JWT     *TokenMaker
	Cookies CookieConfig
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next,omitempty"`
}

type sessionResp struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		s.fail(w, r, signupPath, "", formErrBadRequest, http.StatusBadRequest, "bad request", map[string]any{"cause": err.Error()})
		return
	}
	if req.Email == "" || req.Password == "" {
		s.fail(w, r, signupPath, "", formErrMissing, http.StatusBadRequest, "email/password required", nil)
		return
	}
	if len(req.Password) < minPasswordLen {
		s.fail(w, r, signupPath, "", formErrShort, http.StatusBadRequest, "password too short", map[string]any{"min_len": minPasswordLen})
		return
	}

	id := "u_" + uuid.NewString()

	if err := s.Store.Create(r.Context(), req.Email, req.Password, RoleStaff, id); err != nil {
		if errors.Is(err, ErrEmailExists) {
			s.fail(w, r, signupPath, "", formErrExists, http.StatusConflict, err.Error(), nil)
			return
		}
		s.logger().Error("create user failed", zap.Error(err))
		s.fail(w, r, signupPath, "", formErrServer, http.StatusInternalServerError, "server error", nil)
		return
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		s.fail(w, r, loginPath, "", formErrBadRequest, http.StatusBadRequest, "bad request", map[string]any{"cause": err.Error()})
		return
	}
	if req.Email == "" || req.Password == "" {
		s.fail(w, r, loginPath, req.Next, formErrMissing, http.StatusBadRequest, "email/password required", nil)
		return
	}

	u, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.logger().Error("verify user failed", zap.Error(err))
		}
		s.fail(w, r, loginPath, req.Next, formErrInvalid, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(u.ID, u.Email, u.Role, s.Cookies.ttl())
	if err != nil {
		s.logger().Error("token issue", zap.Error(err))
		s.fail(w, r, loginPath, req.Next, formErrServer, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.Cookies.Set(w, tok)
	s.logger().Info("login", zap.String("user_id", u.ID))

	if !wantsJSON(r) {
		http.Redirect(w, r, safeNext(req.Next), http.StatusSeeOther)
		return
	}
	kit.WriteJSON(w, http.StatusOK, sessionResp{Success: true, UserID: u.ID, Email: u.Email, Role: u.Role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Cookies.Clear(w)

	if !wantsJSON(r) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleResetPassword always answers 202 so the endpoint cannot be used to
// probe which emails exist.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil || req.Email == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "email required", nil)
		return
	}

	if rec, ok := s.Store.(Recoverer); ok {
		if err := rec.Recover(r.Context(), req.Email); err != nil {
			s.logger().Warn("password recovery failed", zap.Error(err))
		}
	}

	kit.WriteJSON(w, http.StatusAccepted, map[string]any{"success": true})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	tok, ok := TokenFromRequest(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing session", nil)
		return
	}

	claims, err := s.JWT.Parse(tok)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid session", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, sessionResp{
		Success: true,
		UserID:  claims.UserID,
		Email:   claims.Email,
		Role:    claims.Role,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, page, next, code string, status int, msg string, details map[string]any) {
	if wantsJSON(r) {
		kit.WriteError(w, r, status, msg, details)
		return
	}

	q := url.Values{"error": {code}}
	if next = safeNext(next); next != homePath {
		q.Set("next", next)
	}
	http.Redirect(w, r, page+"?"+q.Encode(), http.StatusSeeOther)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req credentials
	if isJSON(r) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return credentials{}, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return credentials{}, err
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
		req.Next = r.PostForm.Get("next")
	}

	req.Email = normalizeEmail(req.Email)
	req.Password = normalizePassword(req.Password)
	return req, nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func wantsJSON(r *http.Request) bool {
	return isJSON(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// safeNext only allows same-site absolute paths as redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return homePath
	}
	for i := 0; i < len(next); i++ {
		if next[i] < 0x20 || next[i] == 0x7f {
			return homePath
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return homePath
	}
	return next
}
