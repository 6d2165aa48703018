package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"echo":"` + string(body) + `"}`))
}

func TestGzipMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		requestBody   string
		compressBody  bool
		acceptGzip    bool
		wantEncoding  string
		wantBodyMatch string
	}{
		{
			name:          "plain request, gzip response",
			requestBody:   "cards",
			acceptGzip:    true,
			wantEncoding:  "gzip",
			wantBodyMatch: `{"echo":"cards"}`,
		},
		{
			name:          "plain request, plain response",
			requestBody:   "cards",
			wantEncoding:  "",
			wantBodyMatch: `{"echo":"cards"}`,
		},
		{
			name:          "gzip request body",
			requestBody:   "compressed payload",
			compressBody:  true,
			acceptGzip:    true,
			wantEncoding:  "gzip",
			wantBodyMatch: `{"echo":"compressed payload"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.compressBody {
				var buf bytes.Buffer
				zw := gzip.NewWriter(&buf)
				if _, err := zw.Write([]byte(tt.requestBody)); err != nil {
					t.Fatalf("write gzip: %v", err)
				}
				if err := zw.Close(); err != nil {
					t.Fatalf("close gzip: %v", err)
				}
				body = &buf
			} else {
				body = strings.NewReader(tt.requestBody)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/cards", body)
			if tt.compressBody {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip")
			}

			rec := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.wantEncoding {
				t.Fatalf("content-encoding = %q, want %q", ce, tt.wantEncoding)
			}

			var payload []byte
			var err error
			if tt.wantEncoding == "gzip" {
				zr, zerr := gzip.NewReader(res.Body)
				if zerr != nil {
					t.Fatalf("new gzip reader: %v", zerr)
				}
				defer zr.Close()
				payload, err = io.ReadAll(zr)
			} else {
				payload, err = io.ReadAll(res.Body)
			}
			if err != nil {
				t.Fatalf("read body: %v", err)
			}

			if string(payload) != tt.wantBodyMatch {
				t.Fatalf("body = %q, want %q", string(payload), tt.wantBodyMatch)
			}
		})
	}
}
