package http

import (
	"net/http"
	"strings"

	"github.com/bdsuman/mcq-exam-evaluation-system/internal/quiz"
)

type enumOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// GET /enums/question-types
func QuestionTypesHandler() http.HandlerFunc {
	out := make([]enumOption, 0, len(quiz.QuestionTypes))
	for _, t := range quiz.QuestionTypes {
		out = append(out, enumOption{Value: t, Label: typeLabel(t)})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, out)
	}
}

func typeLabel(t string) string {
	words := strings.Split(t, "_")
	for i, wd := range words {
		if wd != "" {
			words[i] = strings.ToUpper(wd[:1]) + wd[1:]
		}
	}
	return strings.Join(words, " ")
}
