// Package thermostat tracks the furnace state reported by the thermostat:
// the current reading, heat call transitions, and how long the thermostat has
// been unreachable.
package thermostat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clambin/fancontrol/internal/device"
)

// Reading is the thermostat state from one successful poll.
type Reading struct {
	Temperature float64    `json:"temperature"`
	Target      float64    `json:"target"`
	HeatOn      bool       `json:"heatOn"`
	Blower      BlowerMode `json:"blower"`
}

// Reader issues a read request to the thermostat.
type Reader interface {
	Read(ctx context.Context) ([]byte, error)
}

// Tracker polls the thermostat and maintains the heat call history. It is not
// safe for concurrent use: Poll and the query methods are meant to be called
// from a single control loop.
type Tracker struct {
	reader Reader
	tail   time.Duration
	logger *slog.Logger
	now    func() time.Time

	reading        *Reading
	lastTransition time.Time
	transitioned   bool
	failures       uint
}

// every reportEvery'th consecutive failure gets logged at Error level.
const reportEvery = 6

func New(reader Reader, tail time.Duration, logger *slog.Logger) *Tracker {
	t := Tracker{
		reader: reader,
		tail:   tail,
		logger: logger,
		now:    time.Now,
	}
	// Before the first observed transition, TimeSinceTransition reports the
	// tail window, so the blower override starts out disengaged and ceiling
	// fans settle immediately.
	t.lastTransition = t.now().Add(-tail)
	return &t
}

// Poll reads and decodes the thermostat state. On failure the previous
// reading is kept and the failure counter incremented; polling never gives
// up, so the error is informational only.
func (t *Tracker) Poll(ctx context.Context) error {
	t.transitioned = false

	body, err := t.reader.Read(ctx)
	if err != nil {
		t.fail(err)
		return err
	}

	reading, err := decodeReading(body)
	if err != nil {
		t.fail(err)
		return err
	}

	t.failures = 0
	if t.reading != nil && reading.HeatOn != t.reading.HeatOn {
		t.transitioned = true
		t.lastTransition = t.now()
	}
	t.reading = &reading
	return nil
}

func (t *Tracker) fail(err error) {
	t.failures++
	if t.failures%reportEvery != 0 {
		return
	}
	args := []any{
		slog.Uint64("failures", uint64(t.failures)),
		slog.Any("err", err),
	}
	var statusErr *device.HTTPStatusError
	var parseErr *device.ParseError
	if errors.As(err, &statusErr) {
		args = append(args, slog.Int("code", statusErr.StatusCode), slog.String("body", string(statusErr.Body)))
	} else if errors.As(err, &parseErr) {
		args = append(args, slog.String("body", string(parseErr.Body)))
	}
	t.logger.Error("thermostat not responding", args...)
}

// HeatOn reports whether the furnace is calling for heat. False until the
// first successful poll.
func (t *Tracker) HeatOn() bool {
	return t.reading != nil && t.reading.HeatOn
}

// BlowerMode returns the last reported blower mode. ok is false until the
// first successful poll.
func (t *Tracker) BlowerMode() (mode BlowerMode, ok bool) {
	if t.reading == nil {
		return 0, false
	}
	return t.reading.Blower, true
}

// Transitioned reports whether the heat call flipped on the last poll.
func (t *Tracker) Transitioned() bool {
	return t.transitioned
}

// TimeSinceTransition returns the time since the heat call last flipped.
func (t *Tracker) TimeSinceTransition() time.Duration {
	return t.now().Sub(t.lastTransition)
}

// Reading returns the last successfully decoded reading.
func (t *Tracker) Reading() (Reading, bool) {
	if t.reading == nil {
		return Reading{}, false
	}
	return *t.reading, true
}

// Failures returns the number of consecutive failed polls.
func (t *Tracker) Failures() uint {
	return t.failures
}

func decodeReading(body []byte) (Reading, error) {
	var raw struct {
		Temp   *float64 `json:"temp"`
		THeat  *float64 `json:"t_heat"`
		TState *int     `json:"tstate"`
		FMode  *int     `json:"fmode"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Reading{}, &device.ParseError{Err: err, Body: body}
	}
	if raw.Temp == nil || raw.THeat == nil || raw.TState == nil || raw.FMode == nil {
		return Reading{}, &device.ParseError{Err: errors.New("missing required fields"), Body: body}
	}
	mode := BlowerMode(*raw.FMode)
	if !validModes.Contains(mode) {
		return Reading{}, &device.ParseError{Err: fmt.Errorf("invalid fmode %d", *raw.FMode), Body: body}
	}
	return Reading{
		Temperature: *raw.Temp,
		Target:      *raw.THeat,
		HeatOn:      *raw.TState == 1,
		Blower:      mode,
	}, nil
}
