package domain

// Answer is one option of a question.
type Answer struct {
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct" yaml:"correct"`
}

// Question models an MCQ question. The first answer flagged correct is authoritative.
type Question struct {
	Title   string   `json:"title" yaml:"title"`
	Image   string   `json:"image,omitempty" yaml:"image,omitempty"`
	Shuffle bool     `json:"shuffle" yaml:"shuffle"`
	Answers []Answer `json:"answers" yaml:"answers"`
}

// CorrectAnswer returns the first answer marked correct.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.Correct {
			return a, true
		}
	}
	return Answer{}, false
}

// Quiz is a bank of questions plus presentation flags.
type Quiz struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Category        string     `json:"category" yaml:"category"`
	UseTimer        bool       `json:"useTimer" yaml:"useTimer"`
	TimePerQuestion int        `json:"timePerQuestion" yaml:"timePerQuestion"` // seconds
	LongAnswers     bool       `json:"longAnswers" yaml:"longAnswers"`
	Questions       []Question `json:"questions" yaml:"questions"`
}

// Clone returns a deep copy; question and answer slices are not shared.
func (q Quiz) Clone() Quiz {
	if q.Questions == nil {
		return q
	}
	questions := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Answers = append([]Answer(nil), question.Answers...)
		questions[i] = question
	}
	q.Questions = questions
	return q
}

// QuizInfo is the catalog view of a quiz.
type QuizInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	UseTimer        bool   `json:"useTimer"`
	TimePerQuestion int    `json:"timePerQuestion"`
	LongAnswers     bool   `json:"longAnswers"`
	QuestionCount   int    `json:"questionCount"`
}

// Info builds the catalog view.
func (q Quiz) Info() QuizInfo {
	return QuizInfo{
		ID:              q.ID,
		Name:            q.Name,
		Category:        q.Category,
		UseTimer:        q.UseTimer,
		TimePerQuestion: q.TimePerQuestion,
		LongAnswers:     q.LongAnswers,
		QuestionCount:   len(q.Questions),
	}
}

// SessionQuestion is a question with the option set materialized for one session.
type SessionQuestion struct {
	Question Question
	Answers  []Answer
}

// AnswerRecord is appended once per answered (or timed out) question.
type AnswerRecord struct {
	Correct          bool `json:"correct"`
	TimeSpentSeconds int  `json:"timeSpent"`
}

// SessionSummary is derived from the answer records once a session completes.
type SessionSummary struct {
	CorrectCount     int   `json:"correctCount"`
	TotalQuestions   int   `json:"totalQuestions"`
	TotalTimeSeconds int   `json:"totalTime"`
	Percentage       int   `json:"percentage"`
	WrongQuestions   []int `json:"wrongQuestions"`
}

// SessionConfig is what a player asks for before a session starts.
type SessionConfig struct {
	QuizID          string `json:"quizId" validate:"required,max=128"`
	QuestionCount   int    `json:"questions" validate:"gte=0"`
	TimePerQuestion int    `json:"time" validate:"gte=0"`
	PlayerName      string `json:"name" validate:"max=64"`
}

// SessionSettings are the final values a session runs with.
type SessionSettings struct {
	QuestionCount   int
	TimePerQuestion int // seconds
	PlayerName      string
}
