package quiz

import "errors"

var (
	// ErrDuplicateSubmission rejects a submit call when any requested question
	// already has a recorded answer for the user. The whole batch is refused.
	ErrDuplicateSubmission = errors.New("already submitted")

	ErrQuestionNotFound = errors.New("question not found")

	ErrEmptySubmission = errors.New("submission has no responses")
)
