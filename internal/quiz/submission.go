package quiz

// Submission is the payload for one answered question.
type Submission struct {
	QuestionID        int64
	SelectedAnswerIDs []int64
	TextResponse      string
	ResponseTime      int // accumulated seconds
	IsMultipleChoice  bool
	IsOpenEnded       bool
}
