package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pathfinder-service/internal/domain"
)

type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureRecording CaptureState = "recording"
	CaptureStopped   CaptureState = "stopped"
	CaptureDone      CaptureState = "done"
)

const DefaultCaptureTimeout = 75 * time.Second

// CaptureConfig wires one capture widget. Transcriber and Sentiment are
// optional; when Transcriber is nil the submission carries no enrichment.
type CaptureConfig struct {
	Kind        domain.ItemType
	Device      MediaDevice
	Transcriber Transcriber
	Sentiment   SentimentAnalyzer
	Timeout     time.Duration
}

// Capture records one timed media response. The overall countdown starts
// when the widget is created and is advanced by Tick.
type Capture struct {
	cfg       CaptureConfig
	state     CaptureState
	recorder  Recorder
	recording *Recording
	startedAt time.Time
	elapsed   int
	countdown *Countdown
	notice    string
	answer    *domain.MediaAnswer
	closed    bool
}

func NewCapture(cfg CaptureConfig, now time.Time) *Capture {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCaptureTimeout
	}
	c := &Capture{cfg: cfg, state: CaptureIdle, countdown: NewCountdown(cfg.Timeout)}
	c.countdown.Start(now)
	return c
}

func (c *Capture) State() CaptureState {
	return c.state
}

// Start opens the device and begins recording. A refused device leaves the
// widget idle with a notice.
func (c *Capture) Start(ctx context.Context, now time.Time) error {
	if c.closed {
		return domain.ErrClosed
	}
	if c.state != CaptureIdle {
		return fmt.Errorf("start in %s: %w", c.state, domain.ErrCaptureState)
	}
	rec, err := c.cfg.Device.Open(ctx, c.cfg.Kind)
	if err != nil {
		c.notice = "Failed to access " + c.deviceName()
		log.Printf("capture: open %s device: %v", c.cfg.Kind, err)
		return fmt.Errorf("open device: %w", domain.ErrPermissionDenied)
	}
	c.recorder = rec
	c.recording = nil
	c.startedAt = now
	c.elapsed = 0
	c.notice = ""
	c.state = CaptureRecording
	return nil
}

// Stop finalizes the recording. The stream is released whether or not the
// recorder produced a blob.
func (c *Capture) Stop(ctx context.Context, now time.Time) error {
	if c.closed {
		return domain.ErrClosed
	}
	if c.state != CaptureRecording {
		return fmt.Errorf("stop in %s: %w", c.state, domain.ErrCaptureState)
	}
	c.elapsed = wholeSeconds(now.Sub(c.startedAt))
	rec := c.recorder
	c.recorder = nil
	defer rec.Release()

	recording, err := rec.Stop(ctx)
	if err != nil {
		c.notice = "Recording failed, please try again"
		c.state = CaptureIdle
		c.elapsed = 0
		return fmt.Errorf("stop recorder: %w", err)
	}
	c.recording = &recording
	c.state = CaptureStopped
	return nil
}

// Rerecord discards the stopped recording and starts a new one.
func (c *Capture) Rerecord(ctx context.Context, now time.Time) error {
	if c.closed {
		return domain.ErrClosed
	}
	if c.state != CaptureStopped {
		return fmt.Errorf("re-record in %s: %w", c.state, domain.ErrCaptureState)
	}
	c.recording = nil
	c.elapsed = 0
	c.state = CaptureIdle
	return c.Start(ctx, now)
}

// Submit packages the recording. Enrichment failures leave the transcript
// and sentiment empty and never fail the submission.
func (c *Capture) Submit(ctx context.Context, now time.Time) (domain.MediaAnswer, error) {
	if c.closed {
		return domain.MediaAnswer{}, domain.ErrClosed
	}
	if c.state != CaptureStopped || c.recording == nil {
		return domain.MediaAnswer{}, fmt.Errorf("submit in %s: %w", c.state, domain.ErrCaptureState)
	}
	c.countdown.Stop()

	answer := domain.MediaAnswer{
		MediaURL:  c.recording.URL,
		Duration:  c.elapsed,
		Timestamp: now,
	}
	if c.cfg.Transcriber != nil {
		text, err := c.cfg.Transcriber.Transcribe(ctx, c.recording.Data, c.recording.ContentType)
		if err != nil {
			log.Printf("capture: transcribe %s: %v", c.recording.ID, err)
		} else if strings.TrimSpace(text) != "" {
			answer.Transcript = &text
			if c.cfg.Sentiment != nil {
				scores, err := c.cfg.Sentiment.Sentiment(ctx, text)
				if err != nil {
					log.Printf("capture: sentiment %s: %v", c.recording.ID, err)
				} else if len(scores) > 0 {
					answer.Sentiment = scores
				}
			}
		}
	}
	c.answer = &answer
	c.state = CaptureDone
	return answer, nil
}

// Tick advances the duration counter and the overall countdown. On expiry a
// live recording is stopped, and any finished recording is submitted; the
// second return value reports that submission.
func (c *Capture) Tick(ctx context.Context, now time.Time) (domain.MediaAnswer, bool) {
	if c.closed {
		return domain.MediaAnswer{}, false
	}
	if c.state == CaptureRecording {
		c.elapsed = wholeSeconds(now.Sub(c.startedAt))
	}
	if !c.countdown.Tick(now) {
		return domain.MediaAnswer{}, false
	}
	if c.state == CaptureRecording {
		if err := c.Stop(ctx, now); err != nil {
			log.Printf("capture: stop on timeout: %v", err)
		}
	}
	if c.state != CaptureStopped {
		return domain.MediaAnswer{}, false
	}
	answer, err := c.Submit(ctx, now)
	if err != nil {
		log.Printf("capture: submit on timeout: %v", err)
		return domain.MediaAnswer{}, false
	}
	return answer, true
}

// Close stops the countdown and releases any live stream. Idempotent.
func (c *Capture) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.countdown.Stop()
	if c.recorder != nil {
		c.recorder.Release()
		c.recorder = nil
	}
}

type CaptureView struct {
	Kind         domain.ItemType `json:"kind"`
	State        CaptureState    `json:"state"`
	Elapsed      int             `json:"elapsed"`
	TimeLeft     int             `json:"timeLeft"`
	HasRecording bool            `json:"hasRecording"`
	MediaURL     string          `json:"mediaUrl,omitempty"`
	Notice       string          `json:"notice,omitempty"`
}

func (c *Capture) View(now time.Time) CaptureView {
	v := CaptureView{
		Kind:         c.cfg.Kind,
		State:        c.state,
		Elapsed:      c.elapsed,
		TimeLeft:     c.countdown.Remaining(now),
		HasRecording: c.recording != nil,
		Notice:       c.notice,
	}
	if c.recording != nil {
		v.MediaURL = c.recording.URL
	}
	return v
}

func (c *Capture) deviceName() string {
	if c.cfg.Kind == domain.ItemVideo {
		return "camera"
	}
	return "microphone"
}

func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// CaptureFactory builds the capture widget for a media item.
type CaptureFactory func(kind domain.ItemType, now time.Time) *Capture

// DeviceCaptures returns a factory over device. Audio captures are enriched
// with transcription and sentiment when those clients are set.
func DeviceCaptures(device MediaDevice, transcriber Transcriber, sentiment SentimentAnalyzer, timeout time.Duration) CaptureFactory {
	return func(kind domain.ItemType, now time.Time) *Capture {
		cfg := CaptureConfig{Kind: kind, Device: device, Timeout: timeout}
		if kind == domain.ItemAudio {
			cfg.Transcriber = transcriber
			cfg.Sentiment = sentiment
		}
		return NewCapture(cfg, now)
	}
}
