package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

// NewRouter wires the REST catalog, leaderboard endpoints and the play socket.
func NewRouter(service *app.QuizService) *mux.Router {
	api := &restHandler{service: service}
	ws := NewWSHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/play", ws.ServeWS)

	sub := r.PathPrefix("/api").Subrouter()
	sub.HandleFunc("/quizzes", api.listQuizzes).Methods(http.MethodGet)
	sub.HandleFunc("/quizzes/{id}", api.getQuiz).Methods(http.MethodGet)
	sub.HandleFunc("/quizzes/{id}/leaderboard", api.leaderboard).Methods(http.MethodGet)
	return r
}

type restHandler struct {
	service *app.QuizService
}

// leaderboardRow is one ranked entry plus the display strings the results screen shows.
type leaderboardRow struct {
	Rank int `json:"rank"`
	domain.LeaderboardEntry
	SpeedText string `json:"speedText"`
	TimeText  string `json:"timeText"`
}

func (h *restHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *restHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *restHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardRows(entries))
}

func leaderboardRows(entries []domain.LeaderboardEntry) []leaderboardRow {
	rows := make([]leaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, leaderboardRow{
			Rank:             i + 1,
			LeaderboardEntry: e,
			SpeedText:        app.FormatSpeed(e.Speed),
			TimeText:         app.FormatTime(e.Time),
		})
	}
	return rows
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encode response failed")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuizUnplayable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrAnswerOutOfRange),
		errors.Is(err, domain.ErrQuestionOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotCompleted), errors.Is(err, domain.ErrPlayerNameRequired):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
