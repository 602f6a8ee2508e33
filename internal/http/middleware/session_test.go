package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-users-directory/internal/session"
	logctx "github.com/pribylovaa/go-users-directory/pkg/log"
)

const testCookie = "directory_session"

func newTokens() *session.Tokens {
	return session.NewTokens(session.TokenConfig{
		Secret: "0123456789abcdef0123",
		Issuer: "users-directory-test",
		TTL:    time.Hour,
	})
}

// fakeTokens — SessionTokens с управляемыми claims.
type fakeTokens struct {
	claims   session.Claims
	parseErr error
	issueErr error
	issued   []string
}

func (f *fakeTokens) Issue(sid string) (string, time.Time, error) {
	if f.issueErr != nil {
		return "", time.Time{}, f.issueErr
	}

	f.issued = append(f.issued, sid)
	return "tok-" + sid, time.Now().Add(time.Hour), nil
}

func (f *fakeTokens) Parse(string) (session.Claims, error) {
	return f.claims, f.parseErr
}

func serveSession(t *testing.T, tokens SessionTokens, opts SessionOptions, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var sid string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid = SessionID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, Session(tokens, opts)).ServeHTTP(rr, req)

	return rr, sid
}

func TestSession_NoToken_StartsNewSession(t *testing.T) {
	tokens := newTokens()

	rr, sid := serveSession(t, tokens, SessionOptions{Cookie: testCookie}, makeReq("/users"))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, sid)

	tok := rr.Header().Get(HeaderSessionToken)
	require.NotEmpty(t, tok)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, sid, claims.SessionID)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, testCookie, cookies[0].Name)
	require.Equal(t, tok, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, "/", cookies[0].Path)
}

func TestSession_ValidCookie_ReusesSession(t *testing.T) {
	tokens := newTokens()

	tok, _, err := tokens.Issue("sid-1")
	require.NoError(t, err)

	req := makeReq("/users")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: tok})

	rr, sid := serveSession(t, tokens, SessionOptions{Cookie: testCookie}, req)

	require.Equal(t, "sid-1", sid)
	// Свежий токен не перевыпускается.
	require.Empty(t, rr.Header().Get(HeaderSessionToken))
	require.Empty(t, rr.Result().Cookies())
}

func TestSession_ValidHeader_ReusesSession(t *testing.T) {
	tokens := newTokens()

	tok, _, err := tokens.Issue("sid-h")
	require.NoError(t, err)

	req := makeReq("/users")
	req.Header.Set(HeaderSessionToken, tok)

	_, sid := serveSession(t, tokens, SessionOptions{Cookie: testCookie}, req)
	require.Equal(t, "sid-h", sid)
}

func TestSession_CookieWinsOverHeader(t *testing.T) {
	tokens := newTokens()

	fromCookie, _, err := tokens.Issue("sid-cookie")
	require.NoError(t, err)
	fromHeader, _, err := tokens.Issue("sid-header")
	require.NoError(t, err)

	req := makeReq("/users")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: fromCookie})
	req.Header.Set(HeaderSessionToken, fromHeader)

	_, sid := serveSession(t, tokens, SessionOptions{Cookie: testCookie}, req)
	require.Equal(t, "sid-cookie", sid)
}

func TestSession_ForgedToken_StartsNewSession(t *testing.T) {
	other := session.NewTokens(session.TokenConfig{
		Secret: "another-secret-0123456789",
		Issuer: "users-directory-test",
		TTL:    time.Hour,
	})

	forged, _, err := other.Issue("victim")
	require.NoError(t, err)

	req := makeReq("/users")
	req.Header.Set(HeaderSessionToken, forged)

	rr, sid := serveSession(t, newTokens(), SessionOptions{Cookie: testCookie}, req)

	require.NotEqual(t, "victim", sid)
	require.NotEmpty(t, sid)
	require.NotEmpty(t, rr.Header().Get(HeaderSessionToken))
}

func TestSession_RefreshAfterHalfLife(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ft := &fakeTokens{claims: session.Claims{
		SessionID: "sid-old",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(time.Hour),
	}}

	req := makeReq("/users")
	req.Header.Set(HeaderSessionToken, "whatever")

	opts := SessionOptions{
		Cookie: testCookie,
		Now:    func() time.Time { return issued.Add(31 * time.Minute) },
	}

	rr, sid := serveSession(t, ft, opts, req)

	require.Equal(t, "sid-old", sid)
	require.Equal(t, []string{"sid-old"}, ft.issued)
	require.Equal(t, "tok-sid-old", rr.Header().Get(HeaderSessionToken))
}

func TestSession_NoRefreshBeforeHalfLife(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ft := &fakeTokens{claims: session.Claims{
		SessionID: "sid-old",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(time.Hour),
	}}

	req := makeReq("/users")
	req.Header.Set(HeaderSessionToken, "whatever")

	opts := SessionOptions{Now: func() time.Time { return issued.Add(10 * time.Minute) }}

	_, sid := serveSession(t, ft, opts, req)

	require.Equal(t, "sid-old", sid)
	require.Empty(t, ft.issued)
}

func TestSession_IssueFailure_Returns500(t *testing.T) {
	ft := &fakeTokens{issueErr: errors.New("sign failed")}

	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	rr := httptest.NewRecorder()
	Chain(h, Session(ft, SessionOptions{Cookie: testCookie})).ServeHTTP(rr, makeReq("/users"))

	require.False(t, called)
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "internal", env.Error.Code)
}

func TestSession_NoCookieName_HeaderOnly(t *testing.T) {
	rr, sid := serveSession(t, newTokens(), SessionOptions{}, makeReq("/users"))

	require.NotEmpty(t, sid)
	require.NotEmpty(t, rr.Header().Get(HeaderSessionToken))
	require.Empty(t, rr.Result().Cookies())
}

func TestSession_SecureCookie(t *testing.T) {
	rr, _ := serveSession(t, newTokens(), SessionOptions{Cookie: testCookie, Secure: true}, makeReq("/users"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].Secure)
}

func TestSession_AddsSessionToContextLogger(t *testing.T) {
	h := &capHandler{}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logctx.From(r.Context()).Info("handler")
	})

	tokens := newTokens()
	tok, _, err := tokens.Issue("0123456789abcdef")
	require.NoError(t, err)

	req := makeReq("/users")
	req.Header.Set(HeaderSessionToken, tok)

	Chain(final, Logging(slog.New(h)), Session(tokens, SessionOptions{})).ServeHTTP(httptest.NewRecorder(), req)

	// Последняя запись — "http" от Logging; атрибуты базового логгера
	// накоплены capHandler.WithAttrs, включая session из контекста хендлера.
	require.Equal(t, "01234567", h.attrs["session"])
}
