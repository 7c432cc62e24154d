package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Index int `json:"index"`
}

type reviewPayload struct {
	Question int `json:"question"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one play session per connection.
//
// Query: quizId (required), questions, time, name. Session views are pushed as "session"
// messages; when a play-through completes the leaderboard follows as "leaderboard".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := domain.SessionConfig{QuizID: q.Get("quizId"), PlayerName: q.Get("name")}
	if cfg.QuizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	var err error
	if cfg.QuestionCount, err = optionalInt(q.Get("questions")); err != nil {
		http.Error(w, "invalid questions", http.StatusBadRequest)
		return
	}
	if cfg.TimePerQuestion, err = optionalInt(q.Get("time")); err != nil {
		http.Error(w, "invalid time", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.StartSession(ctx, cfg)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := session.ID()
	defer h.service.EndSession(context.Background(), sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	out := newOutbox(16)
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes. A failed write closes the
	// connection so the read loop below ends too.
	go func() {
		if err := out.run(func(msg outboundMessage[any]) error { return conn.WriteJSON(msg) }); err != nil {
			log.WithField("session", sessionID).WithError(err).Debug("ws write error")
			_ = conn.Close()
		}
	}()
	emit := out.emit

	go func() {
		defer close(updatesDone)
		last := domain.StateInitializing
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				if !emit(outboundMessage[any]{Type: "session", Payload: view}) {
					return
				}
				if view.State == domain.StateCompleted && last != domain.StateCompleted {
					if !emit(h.results(ctx, session)) {
						return
					}
				}
				last = view.State
			case <-out.closing:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(errorMessage("invalid answer payload"))
				continue
			}
			if _, _, err := h.service.SubmitAnswer(ctx, sessionID, payload.Index); err != nil {
				emit(errorMessage(err.Error()))
			}
		case "playAgain":
			if _, err := h.service.Restart(ctx, sessionID); err != nil {
				emit(errorMessage(err.Error()))
			}
		case "review":
			var payload reviewPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(errorMessage("invalid review payload"))
				continue
			}
			item, err := h.service.Review(ctx, sessionID, payload.Question)
			if err != nil {
				emit(errorMessage(err.Error()))
				continue
			}
			emit(outboundMessage[any]{Type: "review", Payload: item})
		default:
			emit(errorMessage("unsupported message type"))
		}
	}

	out.shutdown(func() { <-updatesDone })
}

// outbox funnels outbound messages to the single connection writer.
type outbox struct {
	send       chan outboundMessage[any]
	closing    chan struct{}
	writerDone chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		send:       make(chan outboundMessage[any], size),
		closing:    make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// run writes queued messages until the queue is closed or a write fails.
func (o *outbox) run(write func(outboundMessage[any]) error) error {
	defer close(o.writerDone)
	for msg := range o.send {
		if err := write(msg); err != nil {
			return err
		}
	}
	return nil
}

// emit queues msg. It reports false once the handler is closing or the writer stopped.
func (o *outbox) emit(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.closing:
		return false
	case <-o.writerDone:
		return false
	}
}

// shutdown stops emitters, waits for them, then drains the writer.
func (o *outbox) shutdown(waitEmitters func()) {
	close(o.closing)
	waitEmitters()
	close(o.send)
	<-o.writerDone
}

// results submits a finished play-through, or just shows the board for anonymous players.
func (h *WSHandler) results(ctx context.Context, session *app.Session) outboundMessage[any] {
	outcome, err := h.service.RecordResult(ctx, session.ID())
	if err == nil {
		return outboundMessage[any]{Type: "leaderboard", Payload: outcome}
	}
	if !errors.Is(err, domain.ErrPlayerNameRequired) {
		log.WithField("session", session.ID()).WithError(err).Warn("recording result failed")
		return errorMessage(err.Error())
	}
	entries, err := h.service.Leaderboard(ctx, session.Quiz().ID)
	if err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "leaderboard", Payload: domain.SubmitOutcome{
		QuizID:   session.Quiz().ID,
		Entries:  entries,
		Position: -1,
	}}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
