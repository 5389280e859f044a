package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bdsuman/mcq-exam-evaluation-system/internal/config"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/quiz"
)

type optionPayload struct {
	OptionText   string            `json:"option_text" validate:"required,max=500"`
	Translations map[string]string `json:"translations,omitempty"`
	IsCorrect    *bool             `json:"is_correct" validate:"required"`
}

type storeQuestionRequest struct {
	Type         string            `json:"type" validate:"required,oneof=single_choice multiple_choice"`
	Question     string            `json:"question" validate:"required,max=1000"`
	Translations map[string]string `json:"translations,omitempty"`
	Mark         int               `json:"mark" validate:"required,min=1,max=100"`
	Published    bool              `json:"published"`
	Options      []optionPayload   `json:"options" validate:"required,min=2,dive"`
}

type updateQuestionRequest struct {
	Type         string            `json:"type" validate:"omitempty,oneof=single_choice multiple_choice"`
	Question     string            `json:"question" validate:"omitempty,max=1000"`
	Translations map[string]string `json:"translations,omitempty"`
	Mark         *int              `json:"mark" validate:"omitempty,min=1,max=100"`
	Published    *bool             `json:"published"`
	Options      []optionPayload   `json:"options" validate:"omitempty,min=2,dive"`
}

type adminOptionResource struct {
	ID         int64  `json:"id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

type adminQuestionResource struct {
	ID        int64                 `json:"id"`
	Type      string                `json:"type"`
	Question  string                `json:"question"`
	Mark      int                   `json:"mark"`
	Published bool                  `json:"published"`
	Options   []adminOptionResource `json:"options,omitempty"`
	CreatedAt int64                 `json:"created_at"`
	UpdatedAt int64                 `json:"updated_at"`
}

func adminQuestionJSON(q quiz.Question, lang, fallback string) adminQuestionResource {
	res := adminQuestionResource{
		ID:        q.ID,
		Type:      q.Type,
		Question:  pickText(q.Text, lang, fallback),
		Mark:      q.Mark,
		Published: q.Published,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
	for _, o := range q.Options {
		res.Options = append(res.Options, adminOptionResource{
			ID:         o.ID,
			OptionText: pickText(o.Text, lang, fallback),
			IsCorrect:  o.IsCorrect,
		})
	}
	return res
}

// fanOutText duplicates the supplied text across every configured locale,
// then overlays any explicit per-locale translations.
func fanOutText(text string, translations map[string]string, locales []string) map[string]string {
	out := make(map[string]string, len(locales))
	for _, l := range locales {
		out[l] = text
	}
	for l, t := range translations {
		if t != "" {
			out[l] = t
		}
	}
	return out
}

// GET /admin/questions?type=&published=&limit=&offset=&sort_by=&sort_dir=
func ListQuestionsHandler(store quiz.Store, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.ListOpts{
			Type:    strings.TrimSpace(r.URL.Query().Get("type")),
			Limit:   parseIntDefault(r.URL.Query().Get("limit"), 10),
			Offset:  parseIntDefault(r.URL.Query().Get("offset"), 0),
			SortBy:  strings.TrimSpace(r.URL.Query().Get("sort_by")),
			SortDir: strings.TrimSpace(r.URL.Query().Get("sort_dir")),
		}
		if p := r.URL.Query().Get("published"); p != "" {
			b := p == "true" || p == "1"
			opts.Published = &b
		}
		list, err := store.ListQuestions(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		lang := requestLang(r, cfg.DefaultLocale)
		out := make([]adminQuestionResource, 0, len(list))
		for _, q := range list {
			out = append(out, adminQuestionJSON(q, lang, cfg.DefaultLocale))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /admin/questions
func CreateQuestionHandler(store quiz.Store, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeQuestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		q := quiz.Question{
			Type:      req.Type,
			Text:      fanOutText(req.Question, req.Translations, cfg.Locales),
			Mark:      req.Mark,
			Published: req.Published,
		}
		for _, o := range req.Options {
			q.Options = append(q.Options, quiz.Option{
				Text:      fanOutText(o.OptionText, o.Translations, cfg.Locales),
				IsCorrect: *o.IsCorrect,
			})
		}

		created, err := store.PutQuestion(r.Context(), q)
		if err != nil {
			http.Error(w, "question creation failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, adminQuestionJSON(created, requestLang(r, cfg.DefaultLocale), cfg.DefaultLocale))
	}
}

// GET /admin/questions/{questionID}
func GetQuestionHandler(store quiz.Store, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			if errors.Is(err, quiz.ErrQuestionNotFound) {
				http.Error(w, "question not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, adminQuestionJSON(q, requestLang(r, cfg.DefaultLocale), cfg.DefaultLocale))
	}
}

// PUT /admin/questions/{questionID}
func UpdateQuestionHandler(store quiz.Store, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		var req updateQuestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		cur, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			if errors.Is(err, quiz.ErrQuestionNotFound) {
				http.Error(w, "question not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if req.Type != "" {
			cur.Type = req.Type
		}
		if req.Question != "" {
			cur.Text = fanOutText(req.Question, req.Translations, cfg.Locales)
		}
		if req.Mark != nil {
			cur.Mark = *req.Mark
		}
		if req.Published != nil {
			cur.Published = *req.Published
		}
		replaceOptions := req.Options != nil
		if replaceOptions {
			cur.Options = nil
			for _, o := range req.Options {
				cur.Options = append(cur.Options, quiz.Option{
					Text:      fanOutText(o.OptionText, o.Translations, cfg.Locales),
					IsCorrect: *o.IsCorrect,
				})
			}
		}

		updated, err := store.UpdateQuestion(r.Context(), cur, replaceOptions)
		if err != nil {
			http.Error(w, "question update failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, adminQuestionJSON(updated, requestLang(r, cfg.DefaultLocale), cfg.DefaultLocale))
	}
}

// DELETE /admin/questions/{questionID}
func DeleteQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			if errors.Is(err, quiz.ErrQuestionNotFound) {
				http.Error(w, "question not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func questionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
}
