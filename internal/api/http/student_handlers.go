package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bdsuman/mcq-exam-evaluation-system/internal/config"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/quiz"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/rbac"
)

type studentOptionResource struct {
	ID         int64  `json:"id"`
	OptionText string `json:"option_text"`
}

// studentQuestionResource is the student-safe projection: no correctness
// flags before submission.
type studentQuestionResource struct {
	ID          int64                   `json:"id"`
	Type        string                  `json:"type"`
	Question    string                  `json:"question"`
	Mark        int                     `json:"mark"`
	IsSubmitted bool                    `json:"is_submitted"`
	Options     []studentOptionResource `json:"options"`
}

type submitAnswersRequest struct {
	Responses []submitResponse `json:"responses" validate:"required,min=1,dive"`
}

type submitResponse struct {
	QuestionID int64   `json:"question_id" validate:"required"`
	OptionIDs  []int64 `json:"option_ids" validate:"required,min=1"`
}

// GET /student/questions
func ListPublishedQuestionsHandler(store quiz.Store, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		list, err := store.ListPublished(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		lang := requestLang(r, cfg.DefaultLocale)
		out := make([]studentQuestionResource, 0, len(list))
		for _, q := range list {
			res := studentQuestionResource{
				ID:          q.ID,
				Type:        q.Type,
				Question:    pickText(q.Text, lang, cfg.DefaultLocale),
				Mark:        q.Mark,
				IsSubmitted: q.IsSubmitted,
				Options:     []studentOptionResource{},
			}
			for _, o := range q.Options {
				res.Options = append(res.Options, studentOptionResource{
					ID:         o.ID,
					OptionText: pickText(o.Text, lang, cfg.DefaultLocale),
				})
			}
			out = append(out, res)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /student/questions/submit
func SubmitAnswersHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())

		var req submitAnswersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		responses := make([]quiz.AnswerInput, 0, len(req.Responses))
		for _, resp := range req.Responses {
			responses = append(responses, quiz.AnswerInput{
				QuestionID: resp.QuestionID,
				OptionIDs:  resp.OptionIDs,
			})
		}

		report, err := store.SubmitAnswers(r.Context(), userID, responses)
		if err != nil {
			switch {
			case errors.Is(err, quiz.ErrDuplicateSubmission):
				http.Error(w, "already submitted", http.StatusUnprocessableEntity)
			case errors.Is(err, quiz.ErrEmptySubmission):
				http.Error(w, "responses required", http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// GET /student/questions/{questionID}/submission
func GetSubmissionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		view, err := store.GetSubmission(r.Context(), userID, id)
		if err != nil {
			if errors.Is(err, quiz.ErrQuestionNotFound) {
				http.Error(w, "question not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GET /student/stats
func UserStatsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		stats, err := store.GetUserStats(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
