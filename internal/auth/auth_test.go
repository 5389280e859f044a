package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	authmw "github.com/bdsuman/mcq-exam-evaluation-system/internal/auth/middleware"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/config"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/db"
)

func newTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	dbh, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbh.Close() })
	dbh.SetMaxOpenConns(1)
	if err := db.EnsureSchema(context.Background(), dbh, db.DriverSQLite); err != nil {
		t.Fatal(err)
	}
	return dbh
}

func TestRegisterThenLogin(t *testing.T) {
	dbh := newTestDB(t, "auth_register")
	svc := authmw.NewAuthService("test-secret", time.Hour)

	reg := RegisterHandler(svc, dbh)
	rec := httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register",
		strings.NewReader(`{"full_name":"Ada Lovelace","email":"Ada@Example.com","password":"s3cret1"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	var created tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.AccessToken == "" || created.User.Role != "student" {
		t.Fatalf("unexpected register response: %+v", created)
	}
	if created.User.Email != "ada@example.com" {
		t.Fatalf("email must be normalized, got %q", created.User.Email)
	}

	// Duplicate email is a conflict.
	rec = httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register",
		strings.NewReader(`{"full_name":"Ada Again","email":"ada@example.com","password":"other1"}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: want 409, got %d", rec.Code)
	}

	login := LoginHandler(svc, dbh)
	rec = httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"s3cret1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: want 401, got %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	dbh := newTestDB(t, "auth_validation")
	reg := RegisterHandler(authmw.NewAuthService("s", time.Hour), dbh)

	for name, body := range map[string]string{
		"bad email":      `{"full_name":"Ada","email":"not-an-email","password":"s3cret1"}`,
		"short password": `{"full_name":"Ada","email":"ada@example.com","password":"abc"}`,
		"missing name":   `{"email":"ada@example.com","password":"s3cret1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			reg.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register", strings.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
		})
	}
}

func TestGoogleLogin(t *testing.T) {
	dbh := newTestDB(t, "auth_google")
	svc := authmw.NewAuthService("test-secret", time.Hour)
	cfg := config.Config{EnableGoogleAuth: true, GoogleClientID: "client-123"}

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(googleTokenInfo{
			Iss:   "https://accounts.google.com",
			Aud:   "client-123",
			Sub:   "g-sub-1",
			Email: "G.User@Example.com",
			Name:  "G User",
		})
	}))
	defer stub.Close()

	orig := googleTokenInfoURL
	googleTokenInfoURL = stub.URL
	defer func() { googleTokenInfoURL = orig }()

	h := GoogleLoginHandler(svc, dbh, cfg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/google-login",
		strings.NewReader(`{"id_token":"good-token"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("google login: %d %s", rec.Code, rec.Body.String())
	}
	var res tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.User.Email != "g.user@example.com" || res.User.Role != "student" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	firstID := res.User.ID

	// Second login resolves the same user, no duplicate row.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/google-login",
		strings.NewReader(`{"id_token":"good-token"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("second login: %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.User.ID != firstID {
		t.Fatalf("repeat login must reuse the user, got %s then %s", firstID, res.User.ID)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/google-login",
		strings.NewReader(`{"id_token":"bad-token"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("rejected token: want 401, got %d", rec.Code)
	}

	disabled := GoogleLoginHandler(svc, dbh, config.Config{})
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/google-login",
		strings.NewReader(`{"id_token":"good-token"}`)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disabled flow: want 403, got %d", rec.Code)
	}
}
