package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareMintsCookie(t *testing.T) {
	var captured string
	handler := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !anonIDPattern.MatchString(captured) {
		t.Errorf("Expected minted anon id, got %q", captured)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == AnonCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected identity cookie to be set")
	}
	if cookie.Value != captured {
		t.Errorf("Cookie %q does not match context user %q", cookie.Value, captured)
	}
	if !cookie.HttpOnly {
		t.Error("Identity cookie must be HttpOnly")
	}
	if cookie.Secure {
		t.Error("Development cookies must not require HTTPS")
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	var captured string
	handler := Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
	}))

	existing := "anon_0123456789abcdef0123456789abcdef"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured != existing {
		t.Errorf("Expected existing identity reused, got %q", captured)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("Valid cookie must not be re-minted")
	}
}

func TestMiddlewareRejectsMalformedCookie(t *testing.T) {
	var captured string
	handler := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "anon_../../etc/passwd"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured == "anon_../../etc/passwd" {
		t.Error("Malformed identity accepted")
	}
	if !anonIDPattern.MatchString(captured) {
		t.Errorf("Expected a freshly minted id, got %q", captured)
	}
}
