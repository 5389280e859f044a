package quiz

import "context"

type ListOpts struct {
	Type      string // filter: single_choice|multiple_choice
	Published *bool  // filter: publication state
	Limit     int
	Offset    int
	SortBy    string // id|mark|created_at (default: id)
	SortDir   string // asc|desc (default: desc)
}

// PublishedQuestion pairs a student-safe question with whether the viewer has
// already answered it.
type PublishedQuestion struct {
	Question
	IsSubmitted bool
}

// Store is the persistence boundary for questions, options and the
// submission ledger. Implementations must keep SubmitAnswers atomic: the
// duplicate pre-check, the aggregate row and the per-question answer rows
// commit together or not at all.
type Store interface {
	// Question authoring (admin side).
	PutQuestion(ctx context.Context, q Question) (Question, error)
	UpdateQuestion(ctx context.Context, q Question, replaceOptions bool) (Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestions(ctx context.Context, opts ListOpts) ([]Question, error)

	// Student read side. Questions are published-only and answer flags are
	// retained on the struct; handlers must not serialize IsCorrect.
	ListPublished(ctx context.Context, viewerID string) ([]PublishedQuestion, error)

	// GetPublishedWithOptions resolves the requested IDs to published
	// questions with their full option sets. Unknown or unpublished IDs are
	// simply absent from the result.
	GetPublishedWithOptions(ctx context.Context, ids []int64) (map[int64]Question, error)

	// Submission ledger.
	SubmitAnswers(ctx context.Context, userID string, responses []AnswerInput) (SubmissionReport, error)
	GetSubmission(ctx context.Context, userID string, questionID int64) (SubmissionView, error)
	GetUserStats(ctx context.Context, userID string) (UserStats, error)
	GetDashboardStats(ctx context.Context) (DashboardStats, error)
}
