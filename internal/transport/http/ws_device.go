package http

import (
	"context"
	"errors"
	"fmt"

	"pathfinder-service/internal/app"
	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/infra/memory"
)

var errPermissionRefused = errors.New("client refused media permission")

// wsDevice is the per-connection media device. The browser records and
// streams chunks; the device assembles them into a stored blob on stop.
// It is only touched from the session loop.
type wsDevice struct {
	media    *memory.MediaStore
	maxBytes int
	denied   bool
	mimeType string
	active   *wsRecorder
}

func newWSDevice(media *memory.MediaStore, maxBytes int) *wsDevice {
	return &wsDevice{media: media, maxBytes: maxBytes}
}

func (d *wsDevice) Open(_ context.Context, kind domain.ItemType) (app.Recorder, error) {
	if d.denied {
		return nil, errPermissionRefused
	}
	contentType := d.mimeType
	if contentType == "" {
		contentType = string(kind) + "/webm"
	}
	d.active = &wsRecorder{device: d, contentType: contentType}
	return d.active, nil
}

// Append adds a chunk to the live recording, up to maxBytes in total.
func (d *wsDevice) Append(chunk []byte) error {
	if d.active == nil || d.active.stopped {
		return fmt.Errorf("no live recording: %w", domain.ErrCaptureState)
	}
	if len(d.active.data)+len(chunk) > d.maxBytes {
		return fmt.Errorf("recording exceeds %d bytes: %w", d.maxBytes, domain.ErrCaptureState)
	}
	d.active.data = append(d.active.data, chunk...)
	return nil
}

type wsRecorder struct {
	device      *wsDevice
	contentType string
	data        []byte
	stopped     bool
}

func (r *wsRecorder) Stop(context.Context) (app.Recording, error) {
	if r.stopped {
		return app.Recording{}, fmt.Errorf("recorder already stopped: %w", domain.ErrCaptureState)
	}
	r.stopped = true
	return r.device.media.Put(r.contentType, r.data), nil
}

func (r *wsRecorder) Release() {
	r.stopped = true
	r.data = nil
	if r.device.active == r {
		r.device.active = nil
	}
}
