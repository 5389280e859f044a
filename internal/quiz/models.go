package quiz

const (
	TypeSingleChoice   = "single_choice"
	TypeMultipleChoice = "multiple_choice"
)

// QuestionTypes lists the supported types in display order.
var QuestionTypes = []string{TypeSingleChoice, TypeMultipleChoice}

type Option struct {
	ID         int64             `json:"id"`
	QuestionID int64             `json:"question_id,omitempty"`
	Text       map[string]string `json:"-"` // locale -> text
	IsCorrect  bool              `json:"-"` // never serialized to students
}

type Question struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"` // single_choice|multiple_choice
	Text      map[string]string `json:"-"`    // locale -> text
	Mark      int               `json:"mark"` // 1..100
	Published bool              `json:"published"`
	Options   []Option          `json:"-"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// CorrectOptionIDs returns the IDs of options flagged correct, in option order.
func (q Question) CorrectOptionIDs() []int64 {
	ids := make([]int64, 0, len(q.Options))
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// AnswerInput is one entry of a submission request: the question being
// answered and the option IDs the student selected (may contain duplicates).
type AnswerInput struct {
	QuestionID int64   `json:"question_id"`
	OptionIDs  []int64 `json:"option_ids"`
}

// AnswerDetail is the scored outcome for a single scoreable response.
type AnswerDetail struct {
	QuestionID        int64   `json:"question_id"`
	Mark              float64 `json:"mark"`
	ObtainedMarks     float64 `json:"obtained_marks"`
	SelectedOptionIDs []int64 `json:"selected_option_ids"`
	CorrectOptionIDs  []int64 `json:"correct_option_ids"`
	IsCorrect         bool    `json:"is_correct"`
}

// SubmissionReport is returned from a submit call. QuestionsAnswered counts
// every response in the request, including ones skipped as unscoreable, so it
// can exceed len(Details).
type SubmissionReport struct {
	TotalMarks        float64        `json:"total_marks"`
	ObtainedMarks     float64        `json:"obtained_marks"`
	QuestionsAnswered int            `json:"questions_answered"`
	CorrectAnswers    int            `json:"correct_answers"`
	Details           []AnswerDetail `json:"details"`
}

// SubmissionView is the stored answer for one user/question pair. A missing
// submission is a valid state: IsSubmitted=false with zero-value fields.
type SubmissionView struct {
	QuestionID        int64   `json:"question_id"`
	IsSubmitted       bool    `json:"is_submitted"`
	SelectedOptionIDs []int64 `json:"selected_option_ids"`
	CorrectOptionIDs  []int64 `json:"correct_option_ids"`
	IsCorrect         bool    `json:"is_correct"`
	ObtainedMarks     float64 `json:"obtained_marks"`
	TotalMarks        float64 `json:"total_marks"`
	SubmittedAt       *int64  `json:"submitted_at"` // unix seconds
}

type UserStats struct {
	Attempts      int     `json:"attempts"`
	ObtainedMarks float64 `json:"obtained_marks"`
	TotalMarks    float64 `json:"total_marks"`
}

type DashboardStats struct {
	TotalQuestions       int     `json:"total_questions"`
	TotalUsers           int     `json:"total_users"`
	QuestionsAnswered    int     `json:"questions_answered"`
	SubmittedStudents    int     `json:"submitted_students"`
	CorrectSubmissions   int     `json:"correct_submissions"`
	IncorrectSubmissions int     `json:"incorrect_submissions"`
	AccuracyPercent      float64 `json:"accuracy_percent"`
}
