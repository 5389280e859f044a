package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bdsuman/mcq-exam-evaluation-system/internal/audit"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) (Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Question{}, err
	}
	defer func() { _ = tx.Rollback() }()

	tj, err := json.Marshal(q.Text)
	if err != nil {
		return Question{}, err
	}
	now := time.Now().Unix()
	q.CreatedAt, q.UpdatedAt = now, now
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO questions (type,text_json,mark,published,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		q.Type, string(tj), q.Mark, q.Published, now, now).Scan(&q.ID); err != nil {
		return Question{}, err
	}
	for i := range q.Options {
		oj, err := json.Marshal(q.Options[i].Text)
		if err != nil {
			return Question{}, err
		}
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO options (question_id,text_json,is_correct) VALUES ($1,$2,$3) RETURNING id`,
			q.ID, string(oj), q.Options[i].IsCorrect).Scan(&q.Options[i].ID); err != nil {
			return Question{}, err
		}
		q.Options[i].QuestionID = q.ID
	}
	if err := tx.Commit(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// UpdateQuestion rewrites the question row and, when replaceOptions is set,
// drops the old option set and recreates it from q.Options.
func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question, replaceOptions bool) (Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Question{}, err
	}
	defer func() { _ = tx.Rollback() }()

	tj, err := json.Marshal(q.Text)
	if err != nil {
		return Question{}, err
	}
	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx,
		`UPDATE questions SET type=$1, text_json=$2, mark=$3, published=$4, updated_at=$5 WHERE id=$6`,
		q.Type, string(tj), q.Mark, q.Published, now, q.ID)
	if err != nil {
		return Question{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Question{}, ErrQuestionNotFound
	}
	if replaceOptions {
		if _, err := tx.ExecContext(ctx, `DELETE FROM options WHERE question_id=$1`, q.ID); err != nil {
			return Question{}, err
		}
		for i := range q.Options {
			oj, err := json.Marshal(q.Options[i].Text)
			if err != nil {
				return Question{}, err
			}
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO options (question_id,text_json,is_correct) VALUES ($1,$2,$3) RETURNING id`,
				q.ID, string(oj), q.Options[i].IsCorrect).Scan(&q.Options[i].ID); err != nil {
				return Question{}, err
			}
			q.Options[i].QuestionID = q.ID
		}
	}
	if err := tx.Commit(); err != nil {
		return Question{}, err
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,type,text_json,mark,published,created_at,updated_at FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, err
	}
	opts, err := s.optionsFor(ctx, s.db, []int64{q.ID})
	if err != nil {
		return Question{}, err
	}
	q.Options = opts[q.ID]
	return q, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, opts ListOpts) ([]Question, error) {
	where := []string{}
	args := []any{}
	if opts.Type != "" {
		args = append(args, opts.Type)
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	if opts.Published != nil {
		args = append(args, *opts.Published)
		where = append(where, fmt.Sprintf("published=$%d", len(args)))
	}
	q := `SELECT id,type,text_json,mark,published,created_at,updated_at FROM questions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + sortColumn(opts.SortBy) + " " + sortDir(opts.SortDir)
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = 10
	case limit > 100:
		limit = 100
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	ids := []int64{}
	for rows.Next() {
		qq, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qq)
		ids = append(ids, qq.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	optsByQ, err := s.optionsFor(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Options = optsByQ[out[i].ID]
	}
	return out, nil
}

func (s *SQLStore) ListPublished(ctx context.Context, viewerID string) ([]PublishedQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,type,text_json,mark,published,created_at,updated_at
		 FROM questions WHERE published=$1 ORDER BY id DESC`, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PublishedQuestion{}
	ids := []int64{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, PublishedQuestion{Question: q})
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optsByQ, err := s.optionsFor(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	submitted, err := s.submittedQuestionIDs(ctx, s.db, viewerID, nil)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Options = optsByQ[out[i].ID]
		_, out[i].IsSubmitted = submitted[out[i].ID]
	}
	return out, nil
}

func (s *SQLStore) GetPublishedWithOptions(ctx context.Context, ids []int64) (map[int64]Question, error) {
	return s.publishedWithOptions(ctx, s.db, ids)
}

// SubmitAnswers runs the full score-and-record flow in one transaction:
// duplicate pre-check, scoring, aggregate insert, per-question answer inserts
// and the audit event. A uniqueness violation raced in by a concurrent
// request is reported as ErrDuplicateSubmission with everything rolled back.
func (s *SQLStore) SubmitAnswers(ctx context.Context, userID string, responses []AnswerInput) (SubmissionReport, error) {
	if len(responses) == 0 {
		return SubmissionReport{}, ErrEmptySubmission
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SubmissionReport{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(responses))
	for _, r := range responses {
		ids = append(ids, r.QuestionID)
	}

	already, err := s.submittedQuestionIDs(ctx, tx, userID, ids)
	if err != nil {
		return SubmissionReport{}, err
	}
	if len(already) > 0 {
		return SubmissionReport{}, ErrDuplicateSubmission
	}

	questions, err := s.publishedWithOptions(ctx, tx, ids)
	if err != nil {
		return SubmissionReport{}, err
	}

	report := Score(questions, responses)

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO question_submissions (user_id,total_marks,obtained_marks,questions_answered,correct_answers,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		userID, report.TotalMarks, report.ObtainedMarks, report.QuestionsAnswered, report.CorrectAnswers, now); err != nil {
		return SubmissionReport{}, err
	}

	for _, d := range report.Details {
		sel, _ := json.Marshal(d.SelectedOptionIDs)
		cor, _ := json.Marshal(d.CorrectOptionIDs)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO question_submission_answers
			 (user_id,question_id,selected_option_ids,correct_option_ids,mark,obtained_marks,is_correct,created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			userID, d.QuestionID, string(sel), string(cor), d.Mark, d.ObtainedMarks, d.IsCorrect, now); err != nil {
			if isUniqueViolation(s.driver, err) {
				return SubmissionReport{}, ErrDuplicateSubmission
			}
			return SubmissionReport{}, err
		}
	}

	data, _ := json.Marshal(map[string]any{
		"total_marks":        report.TotalMarks,
		"obtained_marks":     report.ObtainedMarks,
		"questions_answered": report.QuestionsAnswered,
		"correct_answers":    report.CorrectAnswers,
	})
	if err := audit.Append(ctx, tx, audit.Event{
		Type:     audit.TypeSubmissionRecorded,
		Key:      userID,
		DataJSON: string(data),
	}); err != nil {
		return SubmissionReport{}, err
	}

	if err := tx.Commit(); err != nil {
		return SubmissionReport{}, err
	}
	return report, nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, userID string, questionID int64) (SubmissionView, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT selected_option_ids,correct_option_ids,mark,obtained_marks,is_correct,created_at
		 FROM question_submission_answers WHERE user_id=$1 AND question_id=$2`,
		userID, questionID)

	var selJSON, corJSON string
	var mark, obtained float64
	var isCorrect bool
	var createdAt int64
	err := row.Scan(&selJSON, &corJSON, &mark, &obtained, &isCorrect, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Absence is a valid state; fall back to the live question mark.
		q, qerr := s.GetQuestion(ctx, questionID)
		if qerr != nil {
			return SubmissionView{}, qerr
		}
		return SubmissionView{
			QuestionID:        questionID,
			SelectedOptionIDs: []int64{},
			CorrectOptionIDs:  []int64{},
			TotalMarks:        float64(q.Mark),
		}, nil
	}
	if err != nil {
		return SubmissionView{}, err
	}

	v := SubmissionView{
		QuestionID:    questionID,
		IsSubmitted:   true,
		IsCorrect:     isCorrect,
		ObtainedMarks: obtained,
		TotalMarks:    mark,
		SubmittedAt:   &createdAt,
	}
	if err := json.Unmarshal([]byte(selJSON), &v.SelectedOptionIDs); err != nil {
		v.SelectedOptionIDs = []int64{}
	}
	if err := json.Unmarshal([]byte(corJSON), &v.CorrectOptionIDs); err != nil {
		v.CorrectOptionIDs = []int64{}
	}
	return v, nil
}

func (s *SQLStore) GetUserStats(ctx context.Context, userID string) (UserStats, error) {
	var st UserStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(obtained_marks),0), COALESCE(SUM(total_marks),0)
		 FROM question_submissions WHERE user_id=$1`, userID).
		Scan(&st.Attempts, &st.ObtainedMarks, &st.TotalMarks)
	return st, err
}

func (s *SQLStore) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	var st DashboardStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&st.TotalQuestions); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.TotalUsers); err != nil {
		return st, err
	}
	var correct int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END),0),
		        COUNT(DISTINCT user_id)
		 FROM question_submission_answers`).
		Scan(&st.QuestionsAnswered, &correct, &st.SubmittedStudents); err != nil {
		return st, err
	}
	st.CorrectSubmissions = correct
	st.IncorrectSubmissions = st.QuestionsAnswered - correct
	if st.QuestionsAnswered > 0 {
		st.AccuracyPercent = round2(float64(correct) / float64(st.QuestionsAnswered) * 100)
	}
	return st, nil
}

// --- internals ---

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanQuestion(row rowScanner) (Question, error) {
	var q Question
	var tj string
	if err := row.Scan(&q.ID, &q.Type, &tj, &q.Mark, &q.Published, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(tj), &q.Text); err != nil {
		q.Text = map[string]string{}
	}
	return q, nil
}

func (s *SQLStore) optionsFor(ctx context.Context, db querier, questionIDs []int64) (map[int64][]Option, error) {
	out := map[int64][]Option{}
	if len(questionIDs) == 0 {
		return out, nil
	}
	ph, args := inArgs(questionIDs)
	rows, err := db.QueryContext(ctx,
		`SELECT id,question_id,text_json,is_correct FROM options
		 WHERE question_id IN (`+ph+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o Option
		var tj string
		if err := rows.Scan(&o.ID, &o.QuestionID, &tj, &o.IsCorrect); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tj), &o.Text); err != nil {
			o.Text = map[string]string{}
		}
		out[o.QuestionID] = append(out[o.QuestionID], o)
	}
	return out, rows.Err()
}

func (s *SQLStore) publishedWithOptions(ctx context.Context, db querier, ids []int64) (map[int64]Question, error) {
	out := map[int64]Question{}
	if len(ids) == 0 {
		return out, nil
	}
	ph, args := inArgs(ids)
	args = append(args, true)
	rows, err := db.QueryContext(ctx,
		`SELECT id,type,text_json,mark,published,created_at,updated_at FROM questions
		 WHERE id IN (`+ph+fmt.Sprintf(`) AND published=$%d`, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	qids := []int64{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
		qids = append(qids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	optsByQ, err := s.optionsFor(ctx, db, qids)
	if err != nil {
		return nil, err
	}
	for id, q := range out {
		q.Options = optsByQ[id]
		out[id] = q
	}
	return out, nil
}

func (s *SQLStore) submittedQuestionIDs(ctx context.Context, db querier, userID string, within []int64) (map[int64]struct{}, error) {
	q := `SELECT question_id FROM question_submission_answers WHERE user_id=$1`
	args := []any{userID}
	if len(within) > 0 {
		ph, inA := inArgsFrom(within, 2)
		q += ` AND question_id IN (` + ph + `)`
		args = append(args, inA...)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func inArgs(ids []int64) (string, []any) { return inArgsFrom(ids, 1) }

func inArgsFrom(ids []int64, start int) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(ph, ","), args
}

// sortColumn and sortDir whitelist the ORDER BY inputs; anything else falls
// back to the ListOpts defaults.
func sortColumn(s string) string {
	switch s {
	case "id", "mark", "created_at":
		return s
	}
	return "id"
}

func sortDir(s string) string {
	if strings.EqualFold(s, "asc") {
		return "ASC"
	}
	return "DESC"
}

func isUniqueViolation(driver string, err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if driver == "postgres" {
		return strings.Contains(msg, "duplicate key value violates unique constraint") ||
			strings.Contains(msg, "sqlstate 23505")
	}
	return strings.Contains(msg, "unique constraint failed") // sqlite
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
