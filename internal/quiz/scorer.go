package quiz

// Score evaluates a batch of responses against the resolved questions and
// returns the aggregate report. It performs no persistence and no duplicate
// checking; stores wrap it in their submission transaction.
//
// Rules:
//   - responses are processed in input order
//   - a response whose question is absent from questions (unknown or
//     unpublished) is skipped: it contributes to QuestionsAnswered but
//     produces no detail and no marks
//   - selected option IDs are deduplicated and restricted to options that
//     belong to the resolved question
//   - a response is correct iff the filtered selection exactly equals the
//     non-empty set of correct options; no partial credit
func Score(questions map[int64]Question, responses []AnswerInput) SubmissionReport {
	report := SubmissionReport{
		QuestionsAnswered: len(responses),
		Details:           []AnswerDetail{},
	}

	for _, resp := range responses {
		q, ok := questions[resp.QuestionID]
		if !ok {
			continue
		}

		owned := make(map[int64]struct{}, len(q.Options))
		for _, o := range q.Options {
			owned[o.ID] = struct{}{}
		}

		// Dedupe, then drop IDs that belong to some other question.
		selected := make([]int64, 0, len(resp.OptionIDs))
		seen := make(map[int64]struct{}, len(resp.OptionIDs))
		for _, id := range resp.OptionIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := owned[id]; ok {
				selected = append(selected, id)
			}
		}

		correct := q.CorrectOptionIDs()
		mark := float64(q.Mark)
		isCorrect := len(correct) > 0 && len(selected) > 0 && sameIDSet(selected, correct)

		obtained := 0.0
		if isCorrect {
			obtained = mark
			report.CorrectAnswers++
		}
		report.TotalMarks += mark
		report.ObtainedMarks += obtained

		report.Details = append(report.Details, AnswerDetail{
			QuestionID:        resp.QuestionID,
			Mark:              mark,
			ObtainedMarks:     obtained,
			SelectedOptionIDs: selected,
			CorrectOptionIDs:  correct,
			IsCorrect:         isCorrect,
		})
	}
	return report
}

func sameIDSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int64]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}
