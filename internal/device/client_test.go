package device_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clambin/fancontrol/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Read(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"temp": 68.5}`))
	}))
	defer s.Close()

	c := device.New(s.URL, time.Second, nil)
	body, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"temp": 68.5}`, string(body))
}

func TestClient_Read_BadStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not today", http.StatusInternalServerError)
	}))
	defer s.Close()

	c := device.New(s.URL, time.Second, nil)
	_, err := c.Read(context.Background())
	require.Error(t, err)

	var statusErr *device.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "not today")
}

func TestClient_Read_TransportError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	s.Close()

	c := device.New(s.URL, time.Second, nil)
	_, err := c.Read(context.Background())
	require.Error(t, err)

	var transportErr *device.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestClient_Command(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		wantErr    assert.ErrorAssertionFunc
	}{
		{name: "accepted", statusCode: http.StatusOK, wantErr: assert.NoError},
		{name: "rejected", statusCode: http.StatusConflict, wantErr: assert.Error},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			var received string
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				buf := make([]byte, r.ContentLength)
				_, _ = r.Body.Read(buf)
				received = string(buf)
				w.WriteHeader(tt.statusCode)
			}))
			defer s.Close()

			c := device.New(s.URL, time.Second, nil)
			err := c.Command(context.Background(), map[string]int{"fmode": 2})
			tt.wantErr(t, err)
			assert.Equal(t, `{"fmode":2}`, received)

			if err != nil {
				var cmdErr *device.CommandError
				require.ErrorAs(t, err, &cmdErr)
				assert.Equal(t, tt.statusCode, cmdErr.StatusCode)
			}
		})
	}
}

func TestClient_Query(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		wantErr  assert.ErrorAssertionFunc
		want     int
	}{
		{name: "valid", response: `{"fanSpeed": 2}`, wantErr: assert.NoError, want: 2},
		{name: "invalid", response: `not json`, wantErr: assert.Error},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			}))
			defer s.Close()

			c := device.New(s.URL, time.Second, nil)
			var response struct {
				FanSpeed int `json:"fanSpeed"`
			}
			err := c.Query(context.Background(), map[string]int{"queryDynamicShadowData": 1}, &response)
			tt.wantErr(t, err)
			if err == nil {
				assert.Equal(t, tt.want, response.FanSpeed)
				return
			}
			var parseErr *device.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.response, string(parseErr.Body))
		})
	}
}

func TestClient_Probe(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.Error(w, "no posts here", http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer s.Close()

	c := device.New(s.URL, time.Second, nil)

	code, body, err := c.Probe(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", string(body))

	code, _, err = c.Probe(context.Background(), map[string]int{"reboot": 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestClient_Timeout(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Minute):
		}
	}))
	defer s.Close()

	c := device.New(s.URL, 10*time.Millisecond, nil)
	_, err := c.Read(context.Background())

	var transportErr *device.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.NotNil(t, transportErr.Unwrap())
}
