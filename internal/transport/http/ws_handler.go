package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pathfinder-service/internal/app"
	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/infra/memory"
)

const (
	DefaultTickInterval = 250 * time.Millisecond
	// DefaultMaxMessageBytes bounds one inbound frame, base64 chunks included.
	DefaultMaxMessageBytes   = 1 << 20
	DefaultMaxRecordingBytes = 16 << 20
)

// WSConfig wires the assessment driver. Deps.Captures is replaced per
// connection with a factory over that connection's media device.
type WSConfig struct {
	Deps           app.AssessmentDeps
	Media          *memory.MediaStore
	Transcriber    app.Transcriber
	Sentiment      app.SentimentAnalyzer
	CaptureTimeout time.Duration
	TickInterval   time.Duration
	// MaxMessageBytes closes connections sending larger frames.
	MaxMessageBytes int64
	// MaxRecordingBytes caps the chunks accepted for one recording.
	MaxRecordingBytes int
}

// WSHandler plays one assessment attempt per connection.
type WSHandler struct {
	cfg      WSConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(cfg WSConfig) *WSHandler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Media == nil {
		cfg.Media = memory.NewMediaStore(memory.DefaultMediaTTL)
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if cfg.MaxRecordingBytes <= 0 {
		cfg.MaxRecordingBytes = DefaultMaxRecordingBytes
	}
	if cfg.Deps.Now == nil {
		cfg.Deps.Now = time.Now
	}
	return &WSHandler{
		cfg: cfg,
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

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type answerPayload struct {
	Option *string `json:"option"`
	Text   *string `json:"text"`
}

type capturePayload struct {
	Action string `json:"action"`
	// Data is a base64 chunk for the "chunk" action.
	Data       string `json:"data"`
	MimeType   string `json:"mimeType"`
	Permission string `json:"permission"`
}

type outcomePayload struct {
	Outcome app.GameOutcome `json:"outcome"`
}

type noticePayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the attempt until the client leaves.
// Query: session=<id> reuses an adaptive session, adaptive=1 starts one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	adaptive := r.URL.Query().Get("adaptive")
	startSession := adaptive == "1" || adaptive == "true"

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	device := newWSDevice(h.cfg.Media, h.cfg.MaxRecordingBytes)
	deps := h.cfg.Deps
	deps.Captures = app.DeviceCaptures(device, h.cfg.Transcriber, h.cfg.Sentiment, h.cfg.CaptureTimeout)
	attempt := app.NewAssessmentBuilder(deps).Begin(ctx, sessionID, startSession)
	defer attempt.Close()

	send := make(chan outboundMessage, 16)
	inbound := make(chan inboundMessage)
	done := make(chan struct{})
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

	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if errors.Is(err, websocket.ErrReadLimit) {
					log.Printf("ws: frame over %d bytes, closing", h.cfg.MaxMessageBytes)
				}
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	s := &wsSession{attempt: attempt, device: device, now: deps.Now, send: send, writerDone: writerDone}
	s.pushView(true)

	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				break loop
			}
			if err := s.dispatch(ctx, msg); err != nil {
				s.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
			s.pushView(true)
		case now := <-ticker.C:
			if err := attempt.Tick(ctx, now); err != nil {
				log.Printf("ws tick: %v", err)
			}
			s.pushView(false)
		case <-writerDone:
			break loop
		}
	}

	close(done)
	close(send)
	<-writerDone
}

// wsSession is the state owned by the session loop of one connection.
type wsSession struct {
	attempt    *app.Assessment
	device     *wsDevice
	now        func() time.Time
	send       chan<- outboundMessage
	writerDone <-chan struct{}

	lastView   []byte
	lastNotice string
	reportSent bool
}

func (s *wsSession) dispatch(ctx context.Context, msg inboundMessage) error {
	switch msg.Type {
	case "start":
		return s.attempt.Start(ctx)
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid answer payload: %w", err)
		}
		switch {
		case p.Option != nil:
			return s.attempt.Answer(domain.ChoiceAnswer{Option: *p.Option})
		case p.Text != nil:
			return s.attempt.Answer(domain.TextAnswer{Text: *p.Text})
		default:
			return fmt.Errorf("answer needs option or text: %w", domain.ErrAnswerInvalid)
		}
	case "advance":
		return s.attempt.Advance(ctx)
	case "capture":
		var p capturePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid capture payload: %w", err)
		}
		return s.capture(ctx, p)
	case "game_start":
		return s.attempt.StartGame()
	case "game_respond":
		outcome, err := s.attempt.Respond(ctx)
		if err != nil {
			return err
		}
		s.push(outboundMessage{Type: "outcome", Payload: outcomePayload{Outcome: outcome}})
		return nil
	default:
		return fmt.Errorf("unsupported message type %q", msg.Type)
	}
}

func (s *wsSession) capture(ctx context.Context, p capturePayload) error {
	switch p.Action {
	case "start", "rerecord":
		s.device.denied = p.Permission == "denied"
		s.device.mimeType = p.MimeType
		if p.Action == "start" {
			return s.attempt.StartCapture(ctx)
		}
		return s.attempt.Rerecord(ctx)
	case "chunk":
		chunk, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return fmt.Errorf("invalid chunk: %w", err)
		}
		return s.device.Append(chunk)
	case "stop":
		return s.attempt.StopCapture(ctx)
	case "submit":
		return s.attempt.SubmitCapture(ctx)
	default:
		return fmt.Errorf("unsupported capture action %q", p.Action)
	}
}

// pushView sends the current snapshot, plus notice and report events the
// first time they appear. Unchanged snapshots are skipped unless force is set.
func (s *wsSession) pushView(force bool) {
	view := s.attempt.View(s.now())
	raw, err := json.Marshal(view)
	if err != nil {
		log.Printf("ws encode view: %v", err)
		return
	}
	if force || !bytes.Equal(raw, s.lastView) {
		s.lastView = raw
		s.push(outboundMessage{Type: "view", Payload: json.RawMessage(raw)})
	}
	if view.Notice != "" && view.Notice != s.lastNotice {
		s.push(outboundMessage{Type: "notice", Payload: noticePayload{Message: view.Notice}})
	}
	s.lastNotice = view.Notice
	if report, ok := s.attempt.Report(); ok && !s.reportSent {
		s.reportSent = true
		s.push(outboundMessage{Type: "report", Payload: report})
	}
}

func (s *wsSession) push(msg outboundMessage) {
	select {
	case s.send <- msg:
	case <-s.writerDone:
	}
}
