package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRenderer_Render(t *testing.T) {
	var received Batch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/batches", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	renderer := NewHTTPRenderer(server.URL, 5*time.Second)
	batch := &Batch{Code: "B20250320-GB-ABCD", ProgramID: "p1", Rows: []Row{{SerialNumber: "AS-CS-250310-001"}}}

	require.NoError(t, renderer.Render(context.Background(), batch))
	assert.Equal(t, *batch, received)
}

func TestHTTPRenderer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "with message", status: http.StatusUnprocessableEntity, body: `{"message":"unknown template"}`, wantMsg: "422 unknown template"},
		{name: "without body", status: http.StatusBadGateway, wantMsg: "502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.body != "" {
					w.Header().Set("Content-Type", "application/json")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewHTTPRenderer(server.URL, time.Second).Render(context.Background(), &Batch{Code: "B1"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestHTTPRenderer_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewHTTPRenderer(url, time.Second).Render(context.Background(), &Batch{Code: "B1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach renderer")
}
