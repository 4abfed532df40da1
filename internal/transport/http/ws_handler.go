package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fastquiz-service/internal/app"
	"fastquiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler bridges one browser client to its quiz session. The browser owns
// rendering, file picking and system-theme detection; everything stateful
// happens here.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loadPayload struct {
	Text string `json:"text"`
}

type selectPayload struct {
	OptionID string `json:"optionId"`
}

type advancePayload struct {
	Direction string `json:"direction"`
}

type themePayload struct {
	Name string `json:"name"`
}

// settingsPayload carries a partial update; absent fields stay unchanged.
type settingsPayload struct {
	TimerEnabled     *bool `json:"timerEnabled"`
	TimerDuration    *int  `json:"timerDuration"`
	ShuffleQuestions *bool `json:"shuffleQuestions"`
	ShuffleOptions   *bool `json:"shuffleOptions"`
}

type examplePayload struct {
	Text string `json:"text"`
}

type notificationPayload struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// sendNotifier implements app.Notifier over the connection's send channel,
// so the timer's "time's up" and load errors reach the user as toasts.
type sendNotifier struct {
	send chan<- outboundMessage[any]
}

func (n *sendNotifier) Notify(kind, title, message string) {
	msg := outboundMessage[any]{Type: "notification", Payload: notificationPayload{
		Kind:    kind,
		Title:   title,
		Message: message,
	}}
	// Toasts are best-effort: never block a tick or transition on a wedged
	// connection.
	select {
	case n.send <- msg:
	default:
	}
}

// ServeWS upgrades the request and runs the per-client message loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		http.Error(w, "missing clientId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session := h.service.Attach(clientID)
	defer h.service.Detach(clientID)
	// Sessions with a loaded document survive Detach so the client resumes
	// its run on reconnect.

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Keep draining so senders never block on a dead connection.
				for range send {
				}
				return
			}
		}
	}()

	notifier := &sendNotifier{send: send}
	timer := app.NewTimerController(session, notifier)

	events, cancelEvents := session.Subscribe()
	themes, cancelThemes := h.service.Theme().Subscribe()

	go func() {
		defer close(forwardDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind == "timeout" && ev.Result != nil {
					forward(send, closeSignals, outboundMessage[any]{Type: "answerResult", Payload: *ev.Result})
				}
				if !forward(send, closeSignals, outboundMessage[any]{Type: "state", Payload: ev.Snapshot}) {
					return
				}
			case name, ok := <-themes:
				if !ok {
					return
				}
				if !forward(send, closeSignals, outboundMessage[any]{Type: "theme", Payload: themePayload{Name: name}}) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "settings", Payload: h.service.Settings().Get()}

	// Restore the previous quiz into a fresh session, the way the web app
	// reopened with its last document. In-progress reconnects keep their run.
	if session.Empty() {
		if _, err := h.service.RestoreLastQuiz(ctx, clientID); err != nil && !errors.Is(err, domain.ErrNoLastQuiz) {
			notifier.Notify(app.NotifyError, "Could not restore quiz", err.Error())
		}
	}
	timer.Restart()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(ctx, session, timer, notifier, send, inbound)
	}

	// Shutdown order matters: the timer must be fully stopped before send
	// closes, since its notifier writes there.
	timer.Stop()
	cancelEvents()
	cancelThemes()
	close(closeSignals)
	<-forwardDone
	close(send)
	<-writerDone
}

// forward pushes a message unless the connection is closing.
func forward(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-closeSignals:
		return false
	}
}

func (h *WSHandler) handle(ctx context.Context, session *app.Session, timer *app.TimerController, notifier app.Notifier, send chan<- outboundMessage[any], inbound inboundMessage) {
	clientID := session.ID()

	switch inbound.Type {
	case "load":
		var payload loadPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid load payload")
			return
		}
		if _, err := h.service.LoadQuizText(ctx, clientID, payload.Text); err != nil {
			if !errors.Is(err, domain.ErrLoadSuperseded) {
				notifier.Notify(app.NotifyError, "Could not load quiz", err.Error())
			}
			return
		}
		notifier.Notify(app.NotifySuccess, "Quiz loaded", "Good luck!")
		timer.Restart()

	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid select payload")
			return
		}
		if _, err := session.SelectOption(payload.OptionID); err != nil {
			send <- errorMessage(err.Error())
		}

	case "submit":
		result, err := session.SubmitAnswer()
		if err != nil {
			send <- errorMessage(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "answerResult", Payload: result}

	case "advance":
		var payload advancePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid advance payload")
			return
		}
		dir := app.Next
		if payload.Direction == "previous" {
			dir = app.Previous
		} else if payload.Direction != "next" {
			send <- errorMessage("direction must be next or previous")
			return
		}
		if _, err := session.Advance(dir); err != nil {
			send <- errorMessage(err.Error())
			return
		}
		timer.Restart()

	case "reshuffle":
		if _, err := h.service.Reshuffle(clientID); err != nil {
			send <- errorMessage(err.Error())
			return
		}
		timer.Restart()

	case "reset":
		timer.Stop()
		if _, err := h.service.Reset(clientID); err != nil {
			send <- errorMessage(err.Error())
		}

	case "summary":
		report, err := session.ShowSummary()
		if err != nil {
			send <- errorMessage(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "summary", Payload: report}

	case "settings":
		var payload settingsPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid settings payload")
			return
		}
		if err := h.applySettings(ctx, payload); err != nil {
			notifier.Notify(app.NotifyError, "Could not save settings", err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "settings", Payload: h.service.Settings().Get()}

	case "theme":
		var payload themePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid theme payload")
			return
		}
		if err := h.service.Theme().Set(ctx, payload.Name); err != nil {
			send <- errorMessage(err.Error())
		}

	case "example":
		send <- outboundMessage[any]{Type: "example", Payload: examplePayload{Text: app.ExampleQuizJSON()}}

	default:
		send <- errorMessage("unsupported message type")
	}
}

func (h *WSHandler) applySettings(ctx context.Context, payload settingsPayload) error {
	settings := h.service.Settings()
	if payload.TimerEnabled != nil {
		if err := settings.SetTimerEnabled(ctx, *payload.TimerEnabled); err != nil {
			return err
		}
	}
	if payload.TimerDuration != nil {
		if err := settings.SetTimerDuration(ctx, *payload.TimerDuration); err != nil {
			return err
		}
	}
	if payload.ShuffleQuestions != nil {
		if err := settings.SetShuffleQuestions(ctx, *payload.ShuffleQuestions); err != nil {
			return err
		}
	}
	if payload.ShuffleOptions != nil {
		if err := settings.SetShuffleOptions(ctx, *payload.ShuffleOptions); err != nil {
			return err
		}
	}
	return nil
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
