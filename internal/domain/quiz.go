package domain

// QuizOptionCount is the number of options in a multiple-choice quiz.
const QuizOptionCount = 4

// QuizOption is one answer choice.
type QuizOption struct {
	ID   int64  `json:"word_id"`
	Text string `json:"text"`
}

// Quiz is a multiple-choice question about one concept.
type Quiz struct {
	CorrectID int64        `json:"correct_id"`
	Question  string       `json:"question"`
	Options   []QuizOption `json:"options"`
}
