package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) tokenResponse {
	t.Helper()
	var out tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("s3cret")
	tok, err := a.IssueJWT("u1", rbac.RoleLearner)
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Sub != "u1" || c.Role != rbac.RoleLearner {
		t.Fatalf("claims = %+v", c)
	}
	if _, err := NewAuthService("other").Parse(tok); err == nil {
		t.Fatal("token verified with the wrong key")
	}
	if _, err := a.Parse(tok + "x"); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthService("s3cret")
	h := LoginHandler(a, "admin", string(hash))

	cases := []struct {
		name, body string
		want       int
	}{
		{"ok", `{"username":"admin","password":"hunter2"}`, http.StatusOK},
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"wrong user", `{"username":"root","password":"hunter2"}`, http.StatusUnauthorized},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want != http.StatusOK {
				return
			}
			out := decodeToken(t, rec)
			c, err := a.Parse(out.AccessToken)
			if err != nil || c.Role != rbac.RoleAuthor {
				t.Fatalf("claims = %+v, %v", c, err)
			}
		})
	}

	rec := httptest.NewRecorder()
	LoginHandler(a, "admin", "")(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"admin","password":""}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login without configured hash: %d", rec.Code)
	}
}

func TestGuestLogin_ReusesCookie(t *testing.T) {
	a := NewAuthService("s3cret")
	h := GuestLoginHandler(a, true)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	first := decodeToken(t, rec)
	if !strings.HasPrefix(first.Subject, guestPrefix) || first.Role != rbac.RoleLearner {
		t.Fatalf("first = %+v", first)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v", cookies)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h(rec, req)
	if again := decodeToken(t, rec); again.Subject != first.Subject {
		t.Fatalf("guest id changed: %s -> %s", first.Subject, again.Subject)
	}

	// forged cookie values are replaced
	req = httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(&http.Cookie{Name: guestCookie, Value: "admin"})
	rec = httptest.NewRecorder()
	h(rec, req)
	if out := decodeToken(t, rec); out.Subject == "admin" {
		t.Fatal("forged guest cookie accepted")
	}

	rec = httptest.NewRecorder()
	GuestLoginHandler(a, false)(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disabled guest auth: %d", rec.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("s3cret")
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lessons", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: %d", rec.Code)
	}

	tok, _ := a.IssueJWT("u7", rbac.RoleLearner)
	req := httptest.NewRequest(http.MethodGet, "/lessons", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotSub != "u7" || gotRole != rbac.RoleLearner {
		t.Fatalf("status=%d sub=%q role=%q", rec.Code, gotSub, gotRole)
	}
}
