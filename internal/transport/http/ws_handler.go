package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs one quiz session per websocket connection.
type WSHandler struct {
	service  *app.TakeService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TakeService) *WSHandler {
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

type startPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: domain.UserMessage(err)}}
}

// ServeWS opens a session for quizId and streams its snapshots until the
// client disconnects. The session is discarded on disconnect.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, domain.NewError(domain.KindValidation, "ws", "missing quizId", domain.ErrInvalidInput))
		return
	}

	opened, err := h.service.Open(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID := opened.ID
	defer h.service.Close(sessionID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// unblocks the read loop
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		resultSent := false
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: snap}}
				if snap.Phase == app.PhaseResultsShown && !resultSent {
					outcome, err := h.service.Outcome(sessionID)
					if err != nil {
						msgs = append(msgs, errorMessage(err))
					} else {
						msgs = append(msgs, outboundMessage[any]{Type: "result", Payload: outcome})
						resultSent = true
					}
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					case <-writerDone:
						return
					}
				}
			case <-closeSignals:
				return
			case <-writerDone:
				return
			}
		}
	}()

	ctx := context.WithoutCancel(r.Context())
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, sessionID, inbound); err != nil {
			select {
			case send <- errorMessage(err):
			case <-updatesDone:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one client message. Successful transitions reach the
// client through the subscription, so only errors are returned here.
func (h *WSHandler) dispatch(ctx context.Context, sessionID string, msg inboundMessage) error {
	var err error
	switch msg.Type {
	case "start":
		var p startPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.NewError(domain.KindValidation, "ws", "invalid start payload", domain.ErrInvalidInput)
		}
		_, err = h.service.Start(ctx, sessionID, p.Name, p.Email)
	case "select":
		var p selectPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.NewError(domain.KindValidation, "ws", "invalid select payload", domain.ErrInvalidInput)
		}
		_, err = h.service.Select(ctx, sessionID, p.Option)
	case "next":
		_, err = h.service.Next(ctx, sessionID)
	case "previous":
		_, err = h.service.Previous(ctx, sessionID)
	case "finish":
		_, err = h.service.Finish(ctx, sessionID)
	default:
		return domain.NewError(domain.KindValidation, "ws", "unsupported message type", domain.ErrInvalidInput)
	}
	return err
}
