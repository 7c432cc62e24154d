package domain

// SessionState is the play-through state machine position.
type SessionState string

const (
	StateInitializing SessionState = "initializing"
	StateInQuestion   SessionState = "in_question"
	StateAnswered     SessionState = "answered"
	StateCompleted    SessionState = "completed"
	StateUnplayable   SessionState = "unplayable"
)

// QuestionView is what a player sees for the current question.
// CorrectAnswer is only set once the question has been answered.
type QuestionView struct {
	Title         string   `json:"title"`
	Image         string   `json:"image,omitempty"`
	Answers       []string `json:"answers"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
}

// SessionView is a snapshot of a play session for the presentation layer.
type SessionView struct {
	SessionID        string          `json:"sessionId"`
	QuizID           string          `json:"quizId"`
	QuizName         string          `json:"quizName"`
	PlayerName       string          `json:"playerName,omitempty"`
	LongAnswers      bool            `json:"longAnswers"`
	State            SessionState    `json:"state"`
	QuestionIndex    int             `json:"questionIndex"`
	TotalQuestions   int             `json:"totalQuestions"`
	Question         *QuestionView   `json:"question,omitempty"`
	SelectedAnswer   *int            `json:"selectedAnswer,omitempty"`
	Feedback         string          `json:"feedback,omitempty"`
	TimerEnabled     bool            `json:"timerEnabled"`
	TimePerQuestion  int             `json:"timePerQuestion"`
	SecondsRemaining int             `json:"secondsRemaining"`
	Answers          []AnswerRecord  `json:"answers"`
	Summary          *SessionSummary `json:"summary,omitempty"`
}

// ReviewItem shows the correct answer of a session question after play.
type ReviewItem struct {
	QuestionIndex int    `json:"questionIndex"`
	Title         string `json:"title"`
	Image         string `json:"image,omitempty"`
	CorrectAnswer string `json:"correctAnswer"`
}
