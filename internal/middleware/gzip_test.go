package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentEcho struct {
	Success bool `json:"success"`
	Data    struct {
		Amount float64 `json:"amount"`
	} `json:"data"`
	Message string `json:"message"`
}

// echoPayment отвечает конвертом с суммой из тела запроса.
func echoPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid request body"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": req})
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func readBody(t *testing.T, res *http.Response) []byte {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	}
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return body
}

func TestGzipMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		body         []byte
		contentEnc   string
		acceptEnc    string
		wantStatus   int
		wantEncoding string
		wantSuccess  bool
		wantAmount   float64
		wantMessage  string
	}{
		{
			name:         "plain request, compressed response",
			body:         []byte(`{"amount":150.5}`),
			acceptEnc:    "gzip, deflate",
			wantStatus:   http.StatusOK,
			wantEncoding: "gzip",
			wantSuccess:  true,
			wantAmount:   150.5,
		},
		{
			name:        "client without gzip gets identity response",
			body:        []byte(`{"amount":100}`),
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantAmount:  100,
		},
		{
			name:         "compressed request body",
			body:         gzipBytes(t, `{"amount":25}`),
			contentEnc:   "gzip",
			acceptEnc:    "gzip",
			wantStatus:   http.StatusOK,
			wantEncoding: "gzip",
			wantSuccess:  true,
			wantAmount:   25,
		},
		{
			name:        "corrupt gzip body is rejected uncompressed",
			body:        []byte("not gzip at all"),
			contentEnc:  "gzip",
			acceptEnc:   "gzip",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid gzip body",
		},
		{
			name:         "handler error passes through compression",
			body:         []byte(`{"amount":`),
			acceptEnc:    "gzip",
			wantStatus:   http.StatusBadRequest,
			wantEncoding: "gzip",
			wantMessage:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/bills/addpayment/x", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.contentEnc != "" {
				req.Header.Set("Content-Encoding", tt.contentEnc)
			}
			if tt.acceptEnc != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEnc)
			}
			w := httptest.NewRecorder()

			GzipMiddleware(http.HandlerFunc(echoPayment)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

			var got paymentEcho
			require.NoError(t, json.Unmarshal(readBody(t, res), &got))
			assert.Equal(t, tt.wantSuccess, got.Success)
			assert.Equal(t, tt.wantAmount, got.Data.Amount)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

func TestGzipMiddleware_LargeBodyRoundTrip(t *testing.T) {
	payload := strings.Repeat("INV-001 PetCare Clinic Dr. Smith ", 2000)

	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(gzipBytes(t, payload)))
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	assert.Less(t, w.Body.Len(), len(payload))
	assert.Equal(t, payload, string(readBody(t, res)))
}
