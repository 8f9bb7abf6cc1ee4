package thermostat

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/clambin/fancontrol/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	body []byte
	err  error
}

func (f *fakeReader) Read(_ context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func makeBody(tstate int, fmode int) []byte {
	return []byte(fmt.Sprintf(`{"temp": 68.5, "t_heat": 70.0, "tstate": %d, "fmode": %d}`, tstate, fmode))
}

func TestTracker_Poll_Transitions(t *testing.T) {
	ctx := context.Background()
	const tail = 6 * time.Minute

	current := time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC)
	reader := fakeReader{body: makeBody(0, 0)}
	tracker := New(&reader, tail, slog.New(slog.DiscardHandler))
	tracker.now = func() time.Time { return current }
	tracker.lastTransition = current.Add(-tail)

	// before the first transition, TimeSinceTransition reports the tail window
	assert.Equal(t, tail, tracker.TimeSinceTransition())

	// first successful poll: no previous reading, so no transition
	require.NoError(t, tracker.Poll(ctx))
	assert.False(t, tracker.Transitioned())
	assert.False(t, tracker.HeatOn())
	assert.Equal(t, tail, tracker.TimeSinceTransition())

	reading, ok := tracker.Reading()
	require.True(t, ok)
	assert.Equal(t, Reading{Temperature: 68.5, Target: 70.0, HeatOn: false, Blower: ModeAuto}, reading)

	// heat turns on
	current = current.Add(15 * time.Second)
	reader.body = makeBody(1, 0)
	require.NoError(t, tracker.Poll(ctx))
	assert.True(t, tracker.Transitioned())
	assert.True(t, tracker.HeatOn())
	assert.Zero(t, tracker.TimeSinceTransition())

	// heat stays on: transition flag is not sticky
	current = current.Add(15 * time.Second)
	require.NoError(t, tracker.Poll(ctx))
	assert.False(t, tracker.Transitioned())
	assert.True(t, tracker.HeatOn())
	assert.Equal(t, 15*time.Second, tracker.TimeSinceTransition())

	// heat turns off
	current = current.Add(15 * time.Second)
	reader.body = makeBody(0, 0)
	require.NoError(t, tracker.Poll(ctx))
	assert.True(t, tracker.Transitioned())
	assert.False(t, tracker.HeatOn())
	assert.Zero(t, tracker.TimeSinceTransition())
}

func TestTracker_Poll_Failures(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	reader := fakeReader{body: makeBody(1, 2)}
	tracker := New(&reader, 6*time.Minute, logger)

	require.NoError(t, tracker.Poll(ctx))
	want, ok := tracker.Reading()
	require.True(t, ok)

	reader.err = &device.HTTPStatusError{StatusCode: 500, Body: []byte("boom")}
	for range 6 {
		assert.Error(t, tracker.Poll(ctx))
	}
	assert.Equal(t, uint(6), tracker.Failures())

	// one elevated entry on the 6th failure, with the last status and body
	assert.Equal(t, 1, strings.Count(out.String(), "thermostat not responding"))
	assert.Contains(t, out.String(), "code=500")
	assert.Contains(t, out.String(), "body=boom")

	// the last good reading survives the outage
	got, ok := tracker.Reading()
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, tracker.HeatOn())

	// recovery resets the counter
	reader.err = nil
	require.NoError(t, tracker.Poll(ctx))
	assert.Zero(t, tracker.Failures())
}

func TestTracker_Poll_ParseFailures(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer
	reader := fakeReader{body: []byte(`not json`)}
	tracker := New(&reader, 6*time.Minute, slog.New(slog.NewTextHandler(&out, nil)))

	for range 6 {
		err := tracker.Poll(ctx)
		require.Error(t, err)
		var parseErr *device.ParseError
		assert.ErrorAs(t, err, &parseErr)
	}
	assert.Equal(t, uint(6), tracker.Failures())
	assert.Equal(t, 1, strings.Count(out.String(), "thermostat not responding"))

	_, ok := tracker.Reading()
	assert.False(t, ok)
	_, ok = tracker.BlowerMode()
	assert.False(t, ok)
}

func TestDecodeReading(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr assert.ErrorAssertionFunc
		want    Reading
	}{
		{
			name:    "heat on",
			body:    `{"temp": 67.0, "t_heat": 70.0, "tstate": 1, "fmode": 0}`,
			wantErr: assert.NoError,
			want:    Reading{Temperature: 67.0, Target: 70.0, HeatOn: true, Blower: ModeAuto},
		},
		{
			name:    "blower on",
			body:    `{"temp": 70.5, "t_heat": 70.0, "tstate": 0, "fmode": 2}`,
			wantErr: assert.NoError,
			want:    Reading{Temperature: 70.5, Target: 70.0, HeatOn: false, Blower: ModeOn},
		},
		{
			name:    "extra fields are fine",
			body:    `{"temp": 70.5, "t_heat": 70.0, "tstate": 0, "fmode": 1, "hold": 1}`,
			wantErr: assert.NoError,
			want:    Reading{Temperature: 70.5, Target: 70.0, HeatOn: false, Blower: ModeCirculate},
		},
		{
			name:    "missing field",
			body:    `{"temp": 70.5, "tstate": 0, "fmode": 1}`,
			wantErr: assert.Error,
		},
		{
			name:    "invalid fmode",
			body:    `{"temp": 70.5, "t_heat": 70.0, "tstate": 0, "fmode": 9}`,
			wantErr: assert.Error,
		},
		{
			name:    "not json",
			body:    `<html></html>`,
			wantErr: assert.Error,
		},
		{
			name:    "empty",
			body:    ``,
			wantErr: assert.Error,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := decodeReading([]byte(tt.body))
			tt.wantErr(t, err)
			if err == nil {
				assert.Equal(t, tt.want, reading)
			}
		})
	}
}

func TestBlowerMode_String(t *testing.T) {
	assert.Equal(t, "AUTO", ModeAuto.String())
	assert.Equal(t, "CIRCULATE", ModeCirculate.String())
	assert.Equal(t, "ON", ModeOn.String())
	assert.Equal(t, "UNKNOWN(9)", BlowerMode(9).String())
}
