package app

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/random"
)

// DefaultAdvanceDelay is how long answer feedback stays on screen before the next question.
const DefaultAdvanceDelay = 1500 * time.Millisecond

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock swaps the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithRand swaps the random source.
func WithRand(r *random.Rand) SessionOption {
	return func(s *Session) { s.rnd = r }
}

// WithAdvanceDelay sets the post-answer pause.
func WithAdvanceDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.advanceDelay = d }
}

// Session is one play-through of a quiz by one player.
//
// Every transition holds mu. Scheduled callbacks (timer completion, auto-advance) carry the
// epoch they were scheduled in and do nothing once a restart or teardown bumped it.
type Session struct {
	id           string
	quiz         domain.Quiz
	settings     domain.SessionSettings
	clock        clockwork.Clock
	rnd          *random.Rand
	advanceDelay time.Duration
	timer        *Countdown

	mu          sync.Mutex
	epoch       uint64
	closed      bool
	state       domain.SessionState
	questions   []domain.SessionQuestion
	index       int
	records     []domain.AnswerRecord
	selected    int
	presentedAt time.Time
	advanceTask clockwork.Timer
	summary     *domain.SessionSummary
	claimed     bool
	subscribers map[chan domain.SessionView]struct{}
}

// NewSession builds a session and runs its first initialization.
func NewSession(id string, quiz domain.Quiz, settings domain.SessionSettings, opts ...SessionOption) *Session {
	s := &Session{
		id:           id,
		quiz:         quiz,
		settings:     settings,
		clock:        clockwork.NewRealClock(),
		advanceDelay: DefaultAdvanceDelay,
		state:        domain.StateInitializing,
		selected:     -1,
		subscribers:  make(map[chan domain.SessionView]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = random.New()
	}
	if quiz.UseTimer {
		s.timer = NewCountdown(s.clock, s.onTimerTick)
	}

	s.mu.Lock()
	s.initializeLocked()
	s.mu.Unlock()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Quiz returns the quiz being played.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// Settings returns the settings the session runs with.
func (s *Session) Settings() domain.SessionSettings { return s.settings }

// State returns the current state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restart discards the current play-through and starts a freshly randomized one.
func (s *Session) Restart() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked()
	}
	s.initializeLocked()
	return s.broadcastLocked()
}

// SubmitAnswer records the player's choice for the current question. It returns false
// without error when the answer is ignored because the question was already answered or
// the session is not showing a question.
func (s *Session) SubmitAnswer(index int) (domain.AnswerRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateUnplayable {
		return domain.AnswerRecord{}, false, domain.ErrQuizUnplayable
	}
	if s.closed || s.state != domain.StateInQuestion || s.selected != -1 {
		return domain.AnswerRecord{}, false, nil
	}
	answers := s.questions[s.index].Answers
	if index < 0 || index >= len(answers) {
		return domain.AnswerRecord{}, false, domain.ErrAnswerOutOfRange
	}
	record := s.recordLocked(index, answers[index].Correct)
	s.broadcastLocked()
	return record, true, nil
}

// Summary returns the result once the session completed.
func (s *Session) Summary() (domain.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.SessionSummary{}, false
	}
	return copySummary(*s.summary), true
}

// ClaimSummary hands out the completed summary exactly once per play-through.
func (s *Session) ClaimSummary() (domain.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil || s.claimed {
		return domain.SessionSummary{}, false
	}
	s.claimed = true
	return copySummary(*s.summary), true
}

// releaseClaim makes the summary claimable again after a failed submission.
func (s *Session) releaseClaim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		s.claimed = false
	}
}

// Review returns the correct answer of a question of the finished play-through.
// Answers stay hidden until the session completed.
func (s *Session) Review(questionIndex int) (domain.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateCompleted {
		return domain.ReviewItem{}, domain.ErrSessionNotCompleted
	}
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return domain.ReviewItem{}, domain.ErrQuestionOutOfRange
	}
	q := s.questions[questionIndex].Question
	item := domain.ReviewItem{QuestionIndex: questionIndex, Title: q.Title, Image: q.Image}
	if correct, ok := q.CorrectAnswer(); ok {
		item.CorrectAnswer = correct.Text
	}
	return item, nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of views pushed on every transition and timer tick.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionView, func()) {
	ch := make(chan domain.SessionView, 8)

	s.mu.Lock()
	// The buffer is empty, so the initial view never blocks.
	ch <- s.snapshotLocked()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close tears the session down: timers and pending advances are cancelled and
// subscribers are released.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelPendingLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) initializeLocked() {
	s.cancelPendingLocked()
	s.state = domain.StateInitializing
	s.questions = SelectSession(s.rnd, s.quiz, s.settings.QuestionCount)
	s.index = 0
	s.records = make([]domain.AnswerRecord, 0, len(s.questions))
	s.selected = -1
	s.summary = nil
	s.claimed = false

	if len(s.questions) == 0 {
		s.state = domain.StateUnplayable
		return
	}
	s.presentLocked()
}

// presentLocked shows the question at s.index and arms the timer.
func (s *Session) presentLocked() {
	s.state = domain.StateInQuestion
	s.selected = -1
	s.presentedAt = s.clock.Now()
	if s.timer != nil {
		epoch, index := s.epoch, s.index
		s.timer.Start(s.settings.TimePerQuestion, func() { s.handleTimeout(epoch, index) })
	}
}

func (s *Session) cancelPendingLocked() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.advanceTask != nil {
		s.advanceTask.Stop()
		s.advanceTask = nil
	}
}

func (s *Session) recordLocked(index int, correct bool) domain.AnswerRecord {
	elapsed := s.clock.Now().Sub(s.presentedAt).Seconds()
	spent := int(math.Round(elapsed))
	if spent < 0 {
		spent = 0
	}
	record := domain.AnswerRecord{Correct: correct, TimeSpentSeconds: spent}
	s.records = append(s.records, record)
	s.selected = index
	s.state = domain.StateAnswered
	if s.timer != nil {
		s.timer.Stop()
	}

	epoch, question := s.epoch, s.index
	s.advanceTask = s.clock.AfterFunc(s.advanceDelay, func() { s.advance(epoch, question) })
	return record
}

// handleTimeout answers the question as wrong when its timer runs out.
func (s *Session) handleTimeout(epoch uint64, question int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch || question != s.index || s.state != domain.StateInQuestion || s.selected != -1 {
		return
	}
	placeholder := 0
	for i, a := range s.questions[s.index].Answers {
		if !a.Correct {
			placeholder = i
			break
		}
	}
	s.recordLocked(placeholder, false)
	s.broadcastLocked()
}

func (s *Session) advance(epoch uint64, question int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch || question != s.index || s.state != domain.StateAnswered {
		return
	}
	s.advanceTask = nil
	if s.index == len(s.questions)-1 {
		s.state = domain.StateCompleted
		summary := summarize(s.records, len(s.questions))
		s.summary = &summary
	} else {
		s.index++
		s.presentLocked()
	}
	s.broadcastLocked()
}

func (s *Session) onTimerTick(int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.StateInQuestion {
		return
	}
	s.broadcastLocked()
}

func (s *Session) broadcastLocked() domain.SessionView {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow consumer: drop the oldest view, the newest one supersedes it.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) snapshotLocked() domain.SessionView {
	view := domain.SessionView{
		SessionID:       s.id,
		QuizID:          s.quiz.ID,
		QuizName:        s.quiz.Name,
		PlayerName:      s.settings.PlayerName,
		LongAnswers:     s.quiz.LongAnswers,
		State:           s.state,
		QuestionIndex:   s.index,
		TotalQuestions:  len(s.questions),
		TimerEnabled:    s.timer != nil,
		TimePerQuestion: s.settings.TimePerQuestion,
		Answers:         append([]domain.AnswerRecord(nil), s.records...),
	}
	if s.timer != nil {
		view.SecondsRemaining = s.timer.Remaining()
	}

	switch s.state {
	case domain.StateInQuestion, domain.StateAnswered:
		current := s.questions[s.index]
		qv := &domain.QuestionView{Title: current.Question.Title, Image: current.Question.Image}
		for _, a := range current.Answers {
			qv.Answers = append(qv.Answers, a.Text)
		}
		if s.state == domain.StateAnswered {
			selected := s.selected
			view.SelectedAnswer = &selected
			view.Feedback = "wrong"
			if last := s.records[len(s.records)-1]; last.Correct {
				view.Feedback = "correct"
			}
			for i, a := range current.Answers {
				if a.Correct {
					correct := i
					qv.CorrectAnswer = &correct
					break
				}
			}
		}
		view.Question = qv
	case domain.StateCompleted:
		summary := copySummary(*s.summary)
		view.Summary = &summary
	}
	return view
}

// summarize folds the answer records of a finished play-through.
func summarize(records []domain.AnswerRecord, total int) domain.SessionSummary {
	summary := domain.SessionSummary{TotalQuestions: total, WrongQuestions: []int{}}
	for i, r := range records {
		summary.TotalTimeSeconds += r.TimeSpentSeconds
		if r.Correct {
			summary.CorrectCount++
		} else {
			summary.WrongQuestions = append(summary.WrongQuestions, i)
		}
	}
	if total > 0 {
		summary.Percentage = int(math.Round(float64(summary.CorrectCount) * 100 / float64(total)))
	}
	return summary
}

func copySummary(in domain.SessionSummary) domain.SessionSummary {
	in.WrongQuestions = append([]int{}, in.WrongQuestions...)
	return in
}
