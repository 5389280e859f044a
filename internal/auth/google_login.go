package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/bdsuman/mcq-exam-evaluation-system/internal/auth/middleware"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/config"
)

// Overridable for tests.
var googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

type googleLoginRequest struct {
	IDToken  string `json:"id_token" validate:"required"`
	Language string `json:"language,omitempty"`
}

type googleTokenInfo struct {
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// POST /auth/google-login → verify id_token via Google tokeninfo, upsert the
// user and mint an API JWT.
// NOTE: For production, prefer verifying the JWT signature with Google's JWKS.
func GoogleLoginHandler(a *authmw.AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.EnableGoogleAuth {
			http.Error(w, "google auth disabled", http.StatusForbidden)
			return
		}
		var req googleLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := http.Get(googleTokenInfoURL + "?id_token=" + url.QueryEscape(req.IDToken))
		if err != nil {
			http.Error(w, "tokeninfo fetch error", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			http.Error(w, "invalid google token", http.StatusUnauthorized)
			return
		}
		var ti googleTokenInfo
		if err := json.NewDecoder(resp.Body).Decode(&ti); err != nil {
			http.Error(w, "tokeninfo parse error", http.StatusBadGateway)
			return
		}
		if cfg.GoogleClientID != "" && ti.Aud != cfg.GoogleClientID {
			http.Error(w, "invalid aud", http.StatusUnauthorized)
			return
		}
		if ti.Iss != "accounts.google.com" && ti.Iss != "https://accounts.google.com" {
			http.Error(w, "invalid iss", http.StatusUnauthorized)
			return
		}
		email := strings.ToLower(strings.TrimSpace(ti.Email))
		if email == "" {
			http.Error(w, "email not provided", http.StatusUnauthorized)
			return
		}

		// Upsert user; keep the existing role if present.
		u := userInfo{Email: email, FullName: ti.Name, Role: "student", Avatar: ti.Picture}
		if u.FullName == "" {
			u.FullName = "Google User"
		}
		err = db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE email=$1`, email).Scan(&u.ID, &u.Role)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			u.ID = uuid.NewString()
			u.Role = "student"
			if _, err := db.ExecContext(r.Context(),
				`INSERT INTO users (id,email,full_name,avatar,role,created_at)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				u.ID, email, u.FullName, u.Avatar, u.Role, time.Now().Unix()); err != nil {
				http.Error(w, "create user", http.StatusInternalServerError)
				return
			}
		case err != nil:
			http.Error(w, "lookup user", http.StatusInternalServerError)
			return
		default:
			if u.Avatar != "" {
				_, _ = db.ExecContext(r.Context(),
					`UPDATE users SET avatar=$1, full_name=$2 WHERE id=$3`, u.Avatar, u.FullName, u.ID)
			}
		}

		tok, err := a.IssueJWT(u.ID, u.Role, email)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, User: u})
	}
}
