package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recoveringStore struct {
	*MemStore
	recovered []string
}

func (s *recoveringStore) Recover(_ context.Context, email string) error {
	s.recovered = append(s.recovered, email)
	return nil
}

func newTestServer(t *testing.T, store UserStore, cookies CookieConfig) *httptest.Server {
	t.Helper()

	s := &Server{
		Log:     zap.NewNop(),
		Store:   store,
		JWT:     NewTokenMaker(testSecret),
		Cookies: cookies,
	}
	ts := httptest.NewServer(NewHandler(s, HTTPDeps{Log: zap.NewNop(), Service: "auth"}))
	t.Cleanup(ts.Close)
	return ts
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

func postJSON(t *testing.T, c *http.Client, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignupLoginWhoAmI(t *testing.T) {
	ts := newTestServer(t, NewMemStore(), CookieConfig{})
	c := noRedirectClient()

	resp := postJSON(t, c, ts.URL+"/auth/signup", `{"email":" Ana@Example.com ","password":"password123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, c, ts.URL+"/auth/signup", `{"email":"ana@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, c, ts.URL+"/auth/login", `{"email":"ana@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	session := cookieNamed(resp, SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Nil(t, cookieNamed(resp, LegacyMarkerCookie))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/whoami", nil)
	require.NoError(t, err)
	req.AddCookie(session)
	who, err := c.Do(req)
	require.NoError(t, err)
	defer who.Body.Close()
	assert.Equal(t, http.StatusOK, who.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Create(context.Background(), "ana@example.com", "password123", RoleStaff, "u_1"))
	ts := newTestServer(t, store, CookieConfig{})

	resp := postJSON(t, http.DefaultClient, ts.URL+"/auth/login", `{"email":"ana@example.com","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, cookieNamed(resp, SessionCookieName))
}

func TestLogin_FormRedirectsWithLegacyMarker(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Create(context.Background(), "ana@example.com", "password123", RoleStaff, "u_1"))
	ts := newTestServer(t, store, CookieConfig{LegacyMarker: true})

	form := url.Values{"email": {"ana@example.com"}, "password": {"password123"}, "next": {"/flyer/meat/new"}}
	resp, err := noRedirectClient().PostForm(ts.URL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/flyer/meat/new", resp.Header.Get("Location"))
	require.NotNil(t, cookieNamed(resp, SessionCookieName))
	marker := cookieNamed(resp, LegacyMarkerCookie)
	require.NotNil(t, marker)
	assert.Equal(t, LegacyMarkerValue, marker.Value)
}

func TestLogout_ClearsCookies(t *testing.T) {
	ts := newTestServer(t, NewMemStore(), CookieConfig{})

	resp, err := noRedirectClient().Post(ts.URL+"/auth/logout", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	session := cookieNamed(resp, SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, -1, session.MaxAge)
}

func TestResetPassword_AlwaysAccepted(t *testing.T) {
	store := &recoveringStore{MemStore: NewMemStore()}
	ts := newTestServer(t, store, CookieConfig{})

	resp := postJSON(t, http.DefaultClient, ts.URL+"/auth/reset-password", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"nobody@example.com"}, store.recovered)
}

func TestWhoAmI_RequiresSession(t *testing.T) {
	ts := newTestServer(t, NewMemStore(), CookieConfig{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/whoami", nil)
	require.NoError(t, err)
	req.Header.Set("Cookie", "isLoggedIn=true")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("https://evil.example"))
	assert.Equal(t, "/", safeNext("//evil.example"))
	assert.Equal(t, "/", safeNext("/\\evil.example"))
	assert.Equal(t, "/", safeNext("/\t/evil.example"))
	assert.Equal(t, "/", safeNext("/\n/evil.example"))
	assert.Equal(t, "/", safeNext("/\x7f/evil.example"))
	assert.Equal(t, "/", safeNext("/%zz"))
	assert.Equal(t, "/flyer/meat/new?x=1", safeNext("/flyer/meat/new?x=1"))
	assert.Equal(t, "/admin", safeNext("/admin"))
}

func TestLogin_FormRejectsControlCharNext(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Create(context.Background(), "ana@example.com", "password123", RoleStaff, "u_1"))
	ts := newTestServer(t, store, CookieConfig{})

	form := url.Values{"email": {"ana@example.com"}, "password": {"password123"}, "next": {"/\t/evil.example"}}
	resp, err := noRedirectClient().PostForm(ts.URL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestForms_FailuresRedirectBack(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Create(context.Background(), "ana@example.com", "password123", RoleStaff, "u_1"))
	ts := newTestServer(t, store, CookieConfig{})

	cases := []struct {
		name     string
		path     string
		form     url.Values
		location string
	}{
		{
			"wrong password keeps next",
			"/auth/login",
			url.Values{"email": {"ana@example.com"}, "password": {"wrong-pass"}, "next": {"/admin"}},
			"/login?error=invalid_credentials&next=%2Fadmin",
		},
		{
			"missing password",
			"/auth/login",
			url.Values{"email": {"ana@example.com"}},
			"/login?error=missing",
		},
		{
			"short password",
			"/auth/signup",
			url.Values{"email": {"bia@example.com"}, "password": {"short"}},
			"/signup?error=short_password",
		},
		{
			"duplicate email",
			"/auth/signup",
			url.Values{"email": {"ana@example.com"}, "password": {"password123"}},
			"/signup?error=email_exists",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := noRedirectClient().PostForm(ts.URL+tc.path, tc.form)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tc.location, resp.Header.Get("Location"))
			assert.Nil(t, cookieNamed(resp, SessionCookieName))
		})
	}
}
