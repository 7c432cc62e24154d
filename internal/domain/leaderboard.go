package domain

// LeaderboardEntry is the persisted leaderboard record. The JSON shape is shared with
// existing stored boards and must not change.
type LeaderboardEntry struct {
	Name           string  `json:"name"`
	Speed          float64 `json:"speed"` // seconds per correct answer, lower is better
	Result         string  `json:"result"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	Time           int     `json:"time"`
	Date           string  `json:"date"`
}

// ResultSubmission is a finished session handed to the leaderboard.
type ResultSubmission struct {
	Name           string
	CorrectCount   int
	TotalQuestions int
	TimeSeconds    int
}

// SubmitOutcome reports what a leaderboard submission did.
type SubmitOutcome struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	Admitted  bool               `json:"admitted"`
	Duplicate bool               `json:"duplicate"`
	Position  int                `json:"position"` // index of the matching row, -1 if absent
}
