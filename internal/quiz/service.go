package quiz

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryAnswer struct {
	detail    AnswerDetail
	createdAt int64
}

type memoryStore struct {
	mu     sync.RWMutex
	nextID int64
	optID  int64

	questions map[int64]Question
	// answers keyed by userID then questionID
	answers map[string]map[int64]memoryAnswer
	// aggregate rows in insertion order
	submissions []struct {
		userID string
		report SubmissionReport
	}
	// distinct user IDs the fake has seen; stands in for the users table
	users map[string]struct{}
}

// NewInMemoryStore returns a Store backed by maps. It mirrors the SQL store's
// semantics (duplicate guard, skip-unpublished, exact-match scoring) and is
// used by tests and local development.
func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[int64]Question{},
		answers:   map[string]map[int64]memoryAnswer{},
		users:     map[string]struct{}{},
	}
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	q.ID = m.nextID
	now := time.Now().Unix()
	q.CreatedAt, q.UpdatedAt = now, now
	for i := range q.Options {
		m.optID++
		q.Options[i].ID = m.optID
		q.Options[i].QuestionID = q.ID
	}
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) UpdateQuestion(_ context.Context, q Question, replaceOptions bool) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.questions[q.ID]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	cur.Type = q.Type
	cur.Text = q.Text
	cur.Mark = q.Mark
	cur.Published = q.Published
	cur.UpdatedAt = time.Now().Unix()
	if replaceOptions {
		cur.Options = nil
		for i := range q.Options {
			m.optID++
			q.Options[i].ID = m.optID
			q.Options[i].QuestionID = cur.ID
			cur.Options = append(cur.Options, q.Options[i])
		}
	}
	m.questions[cur.ID] = cur
	return cur, nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id int64) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuestions(_ context.Context, opts ListOpts) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions {
		if opts.Type != "" && q.Type != opts.Type {
			continue
		}
		if opts.Published != nil && q.Published != *opts.Published {
			continue
		}
		out = append(out, q)
	}
	asc := opts.SortDir == "asc" || opts.SortDir == "ASC"
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Question{}, nil
		}
		out = out[opts.Offset:]
	}
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = 10
	case limit > 100:
		limit = 100
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) ListPublished(_ context.Context, viewerID string) ([]PublishedQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []PublishedQuestion{}
	for _, q := range m.questions {
		if !q.Published {
			continue
		}
		_, submitted := m.answers[viewerID][q.ID]
		out = append(out, PublishedQuestion{Question: q, IsSubmitted: submitted})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryStore) GetPublishedWithOptions(_ context.Context, ids []int64) (map[int64]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[int64]Question{}
	for _, id := range ids {
		if q, ok := m.questions[id]; ok && q.Published {
			out[id] = q
		}
	}
	return out, nil
}

func (m *memoryStore) SubmitAnswers(_ context.Context, userID string, responses []AnswerInput) (SubmissionReport, error) {
	if len(responses) == 0 {
		return SubmissionReport{}, ErrEmptySubmission
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// A question repeated within the batch is a duplicate too: the SQL store
	// trips the UNIQUE(user_id, question_id) constraint on the second insert
	// and rejects the whole batch.
	seen := map[int64]struct{}{}
	for _, r := range responses {
		if _, ok := seen[r.QuestionID]; ok {
			return SubmissionReport{}, ErrDuplicateSubmission
		}
		seen[r.QuestionID] = struct{}{}
		if _, ok := m.answers[userID][r.QuestionID]; ok {
			return SubmissionReport{}, ErrDuplicateSubmission
		}
	}

	questions := map[int64]Question{}
	for _, r := range responses {
		if q, ok := m.questions[r.QuestionID]; ok && q.Published {
			questions[r.QuestionID] = q
		}
	}

	report := Score(questions, responses)

	m.users[userID] = struct{}{}
	if m.answers[userID] == nil {
		m.answers[userID] = map[int64]memoryAnswer{}
	}
	now := time.Now().Unix()
	for _, d := range report.Details {
		m.answers[userID][d.QuestionID] = memoryAnswer{detail: d, createdAt: now}
	}
	m.submissions = append(m.submissions, struct {
		userID string
		report SubmissionReport
	}{userID, report})
	return report, nil
}

func (m *memoryStore) GetSubmission(_ context.Context, userID string, questionID int64) (SubmissionView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.answers[userID][questionID]; ok {
		created := a.createdAt
		return SubmissionView{
			QuestionID:        questionID,
			IsSubmitted:       true,
			SelectedOptionIDs: a.detail.SelectedOptionIDs,
			CorrectOptionIDs:  a.detail.CorrectOptionIDs,
			IsCorrect:         a.detail.IsCorrect,
			ObtainedMarks:     a.detail.ObtainedMarks,
			TotalMarks:        a.detail.Mark,
			SubmittedAt:       &created,
		}, nil
	}
	q, ok := m.questions[questionID]
	if !ok {
		return SubmissionView{}, ErrQuestionNotFound
	}
	return SubmissionView{
		QuestionID:        questionID,
		SelectedOptionIDs: []int64{},
		CorrectOptionIDs:  []int64{},
		TotalMarks:        float64(q.Mark),
	}, nil
}

func (m *memoryStore) GetUserStats(_ context.Context, userID string) (UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st UserStats
	for _, s := range m.submissions {
		if s.userID != userID {
			continue
		}
		st.Attempts++
		st.ObtainedMarks += s.report.ObtainedMarks
		st.TotalMarks += s.report.TotalMarks
	}
	return st, nil
}

func (m *memoryStore) GetDashboardStats(_ context.Context) (DashboardStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := DashboardStats{TotalQuestions: len(m.questions), TotalUsers: len(m.users)}
	for _, byQ := range m.answers {
		if len(byQ) > 0 {
			st.SubmittedStudents++
		}
		for _, a := range byQ {
			st.QuestionsAnswered++
			if a.detail.IsCorrect {
				st.CorrectSubmissions++
			}
		}
	}
	st.IncorrectSubmissions = st.QuestionsAnswered - st.CorrectSubmissions
	if st.QuestionsAnswered > 0 {
		st.AccuracyPercent = round2(float64(st.CorrectSubmissions) / float64(st.QuestionsAnswered) * 100)
	}
	return st, nil
}
