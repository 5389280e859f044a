package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// requestLang picks the response language: X-Request-Language header first,
// then the lang query param, then the configured default.
func requestLang(r *http.Request, def string) string {
	if l := r.Header.Get("X-Request-Language"); l != "" {
		return l
	}
	if l := r.URL.Query().Get("lang"); l != "" {
		return l
	}
	return def
}

// pickText resolves a localized text map to one string, falling back to any
// available translation when the requested locale is missing.
func pickText(m map[string]string, lang, fallback string) string {
	if s, ok := m[lang]; ok && s != "" {
		return s
	}
	if s, ok := m[fallback]; ok && s != "" {
		return s
	}
	for _, s := range m {
		if s != "" {
			return s
		}
	}
	return ""
}
