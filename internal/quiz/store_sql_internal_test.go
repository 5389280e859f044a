package quiz

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		driver string
		err    error
		want   bool
	}{
		{"sqlite", nil, false},
		{"sqlite", errors.New("UNIQUE constraint failed: question_submission_answers.user_id, question_submission_answers.question_id"), true},
		{"sqlite", errors.New(`ERROR: duplicate key value violates unique constraint "x" (SQLSTATE 23505)`), false},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "question_submission_answers_user_id_question_id_key" (SQLSTATE 23505)`), true},
		{"postgres", errors.New("UNIQUE constraint failed: x.y"), false},
		{"sqlite", errors.New("connection refused"), false},
		{"postgres", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.driver, tc.err); got != tc.want {
			t.Errorf("isUniqueViolation(%q, %v) = %v, want %v", tc.driver, tc.err, got, tc.want)
		}
	}
}

func TestSortWhitelist(t *testing.T) {
	for in, want := range map[string]string{
		"id": "id", "mark": "mark", "created_at": "created_at",
		"": "id", "password_hash": "id", "id; DROP TABLE questions": "id",
	} {
		if got := sortColumn(in); got != want {
			t.Errorf("sortColumn(%q) = %q, want %q", in, got, want)
		}
	}
	for in, want := range map[string]string{
		"asc": "ASC", "ASC": "ASC", "desc": "DESC", "": "DESC", "sideways": "DESC",
	} {
		if got := sortDir(in); got != want {
			t.Errorf("sortDir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := round2(200.0 / 3.0); got != 66.67 {
		t.Fatalf("round2(66.66..) = %v", got)
	}
	if got := round2(50); got != 50 {
		t.Fatalf("round2(50) = %v", got)
	}
}
