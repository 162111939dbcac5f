package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
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

type reorderPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type justifyPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type resultsPayload struct {
	Record   domain.ScoreRecord `json:"record"`
	Insights domain.Insights    `json:"insights"`
}

// ServeWS upgrades HTTP requests to websockets and drives one attempt per
// connection. Every accepted action is answered with a fresh session
// snapshot, so the client never has to reconstruct state locally.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	learnerID := r.URL.Query().Get("learnerId")
	displayName := r.URL.Query().Get("name")
	if quizID == "" || learnerID == "" || displayName == "" {
		http.Error(w, "missing quizId, learnerId, or name", http.StatusBadRequest)
		return
	}
	learner := domain.Learner{
		ID:          learnerID,
		DisplayName: displayName,
		College:     r.URL.Query().Get("college"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	snap, err := h.service.StartAttempt(r.Context(), quizID, learner)
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		close(send)
		<-writerDone
		return
	}
	send <- outboundMessage[any]{Type: "session", Payload: snap}
	h.pushResults(send, snap)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var snap app.Snapshot
		var actionErr error
		switch inbound.Type {
		case "acknowledge":
			snap, actionErr = h.service.Acknowledge(r.Context(), quizID, learnerID)
		case "reveal":
			snap, actionErr = h.service.RevealOptions(r.Context(), quizID, learnerID)
		case "reorder":
			var payload reorderPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid reorder payload"}}
				continue
			}
			snap, actionErr = h.service.Reorder(r.Context(), quizID, learnerID, payload.From, payload.To)
		case "justify":
			var payload justifyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid justify payload"}}
				continue
			}
			snap, actionErr = h.service.SetJustification(r.Context(), quizID, learnerID, payload.Text)
		case "next":
			snap, actionErr = h.service.Advance(r.Context(), quizID, learnerID)
		case "back":
			snap, actionErr = h.service.Back(r.Context(), quizID, learnerID)
		case "review":
			snap, actionErr = h.service.Review(r.Context(), quizID, learnerID)
		case "abandon":
			h.service.Abandon(r.Context(), quizID, learnerID)
			send <- outboundMessage[any]{Type: "abandoned", Payload: struct{}{}}
			continue
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}

		if actionErr != nil {
			var submission *domain.SubmissionError
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{
				Message:   actionErr.Error(),
				Retryable: errors.As(actionErr, &submission),
			}}
		}
		// Snapshots accompany errors too: attempts roll back to a valid
		// state, and the client should render that state.
		if snap.AttemptID != "" || snap.State != "" {
			send <- outboundMessage[any]{Type: "session", Payload: snap}
			if actionErr == nil {
				h.pushResults(send, snap)
			}
		}
	}

	close(send)
	<-writerDone
}

// pushResults follows a submitted/reviewing snapshot with the graded record
// and its insight projection.
func (h *WSHandler) pushResults(send chan<- outboundMessage[any], snap app.Snapshot) {
	if snap.Record == nil {
		return
	}
	if snap.State != app.StateSubmitted && snap.State != app.StateReviewing {
		return
	}
	send <- outboundMessage[any]{Type: "results", Payload: resultsPayload{
		Record:   *snap.Record,
		Insights: domain.ProjectInsights(*snap.Record),
	}}
}
