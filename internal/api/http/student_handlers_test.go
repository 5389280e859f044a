package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/bdsuman/mcq-exam-evaluation-system/internal/api/http"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/config"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/quiz"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/rbac"
)

func testConfig() config.Config {
	return config.Config{Locales: []string{"en", "ar"}, DefaultLocale: "en"}
}

// asUser injects the authenticated subject/role the JWT middleware would set.
func asUser(userID, role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := rbac.WithSubject(r.Context(), userID)
		ctx = rbac.WithRole(ctx, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func seedStoreQuestion(t *testing.T, store quiz.Store, mark int, published bool, correct []bool) quiz.Question {
	t.Helper()
	q := quiz.Question{
		Type:      quiz.TypeSingleChoice,
		Text:      map[string]string{"en": "what is the capital of France?", "ar": "ما هي عاصمة فرنسا؟"},
		Mark:      mark,
		Published: published,
	}
	for _, c := range correct {
		q.Options = append(q.Options, quiz.Option{Text: map[string]string{"en": "a city"}, IsCorrect: c})
	}
	created, err := store.PutQuestion(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func TestSubmitAnswersHandler_ReportShape(t *testing.T) {
	store := quiz.NewInMemoryStore()
	qa := seedStoreQuestion(t, store, 5, true, []bool{true, false})

	h := asUser("u1", "student", api.SubmitAnswersHandler(store))

	body := `{"responses":[{"question_id":` + itoa(qa.ID) + `,"option_ids":[` + itoa(qa.Options[0].ID) + `]}]}`
	req := httptest.NewRequest("POST", "/student/questions/submit", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	// snake_case field names are part of the external contract
	for _, field := range []string{"total_marks", "obtained_marks", "questions_answered", "correct_answers", "details"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("response missing %q: %s", field, rec.Body.String())
		}
	}

	var details []map[string]json.RawMessage
	if err := json.Unmarshal(got["details"], &details); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"question_id", "mark", "selected_option_ids", "correct_option_ids", "is_correct"} {
		if _, ok := details[0][field]; !ok {
			t.Fatalf("detail missing %q: %s", field, rec.Body.String())
		}
	}
}

func TestSubmitAnswersHandler_DuplicateIs422(t *testing.T) {
	store := quiz.NewInMemoryStore()
	qa := seedStoreQuestion(t, store, 5, true, []bool{true, false})

	h := asUser("u1", "student", api.SubmitAnswersHandler(store))
	body := `{"responses":[{"question_id":` + itoa(qa.ID) + `,"option_ids":[` + itoa(qa.Options[0].ID) + `]}]}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/student/questions/submit", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("first submit: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/student/questions/submit", strings.NewReader(body)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second submit: want 422, got %d", rec.Code)
	}
}

func TestSubmitAnswersHandler_ValidationRejectsBadShapes(t *testing.T) {
	store := quiz.NewInMemoryStore()
	h := asUser("u1", "student", api.SubmitAnswersHandler(store))

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"empty responses", `{"responses":[]}`},
		{"missing option_ids", `{"responses":[{"question_id":1}]}`},
		{"empty option_ids", `{"responses":[{"question_id":1,"option_ids":[]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("POST", "/student/questions/submit", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
		})
	}
}

func TestListPublishedQuestionsHandler_HidesCorrectness(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedStoreQuestion(t, store, 5, true, []bool{true, false})
	seedStoreQuestion(t, store, 10, false, []bool{true, false}) // unpublished

	h := asUser("u1", "student", api.ListPublishedQuestionsHandler(store, testConfig()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/student/questions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "is_correct") {
		t.Fatalf("student listing must not expose is_correct: %s", rec.Body.String())
	}

	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("unpublished questions must be hidden, got %d entries", len(out))
	}
	if out[0]["question"] != "what is the capital of France?" {
		t.Fatalf("localized text not resolved: %v", out[0]["question"])
	}
}

func TestGetSubmissionHandler_NotSubmittedIsValid(t *testing.T) {
	store := quiz.NewInMemoryStore()
	qa := seedStoreQuestion(t, store, 5, true, []bool{true, false})

	r := chi.NewRouter()
	r.Get("/student/questions/{questionID}/submission", api.GetSubmissionHandler(store))
	h := asUser("u1", "student", r)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/student/questions/"+itoa(qa.ID)+"/submission", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("absence is not an error: got %d", rec.Code)
	}

	var view map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view["is_submitted"] != false {
		t.Fatalf("want is_submitted=false, got %v", view["is_submitted"])
	}
	if view["submitted_at"] != nil {
		t.Fatalf("want submitted_at=null, got %v", view["submitted_at"])
	}

	// Unknown question is a 404, unlike a missing submission.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/student/questions/424242/submission", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown question: want 404, got %d", rec.Code)
	}
}

func TestUserStatsHandler_ZeroIsNotAnError(t *testing.T) {
	store := quiz.NewInMemoryStore()
	h := asUser("u1", "student", api.UserStatsHandler(store))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/student/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var st quiz.UserStats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Attempts != 0 || st.ObtainedMarks != 0 || st.TotalMarks != 0 {
		t.Fatalf("want zero stats, got %+v", st)
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
