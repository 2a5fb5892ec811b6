package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aroovee/rxmindr-sub000/config"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Health endpoint", "/health", 5},
		{"Metrics scrape is free", "/metrics", 0},
		{"Catalog status", "/catalog/status", 5},
		{"Alerts list", "/alerts", 10},
		{"Alert acknowledge", "/alerts/0e7fa463-91a0-4b75-9521-64c95e81cdd1/ack", 10},
		{"Prescriptions list", "/prescriptions", 20},
		{"Prescription by ID", "/prescriptions/0e7fa463-91a0-4b75-9521-64c95e81cdd1", 20},
		{"Record dose", "/prescriptions/0e7fa463-91a0-4b75-9521-64c95e81cdd1/doses", 20},
		{"Search is the expensive endpoint", "/search/amoxicillin", 50},
		{"Unknown endpoint gets default", "/unknown", 20},
		{"Root path gets default", "/", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			cost := getTokenCost(req)

			if cost != tt.expectedCost {
				t.Errorf("Expected cost %d for path %s, got %d", tt.expectedCost, tt.path, cost)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{"No header keeps remote addr", "", "10.0.0.1:1234", "10.0.0.1:1234"},
		{"Single forwarded IP", "203.0.113.7", "10.0.0.1:1234", "203.0.113.7"},
		{"First IP of chain wins", "203.0.113.7, 10.0.0.2, 10.0.0.3", "10.0.0.1:1234", "203.0.113.7"},
		{"Whitespace is trimmed", "  203.0.113.7  ", "10.0.0.1:1234", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))

			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.expected {
				t.Errorf("Expected RemoteAddr %q, got %q", tt.expected, seen)
			}
		})
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		remoteAddr   string
		realIP       string
		expectedCode int
	}{
		{"Localhost allowed", "127.0.0.1:5000", "", http.StatusOK},
		{"IPv6 loopback allowed", "[::1]:5000", "", http.StatusOK},
		{"Proxied request allowed", "10.0.0.1:5000", "203.0.113.7", http.StatusOK},
		{"Direct external access blocked", "203.0.113.7:5000", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{
		MaxRequestBody: 100,
		MaxHeaderSize:  200,
	}
	middleware := RequestSizeMiddleware(cfg)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Small request passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/prescriptions", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("Oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/prescriptions", strings.NewReader(strings.Repeat("x", 500)))
		req.Header.Set("Content-Length", "500")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", rec.Code)
		}
	})

	t.Run("Oversized headers rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("X-Padding", strings.Repeat("y", 300))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("Expected 431, got %d", rec.Code)
		}
	})
}

func TestRateLimitHandler(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Request within budget passes with headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.1.1.1:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "1000" {
			t.Errorf("Expected X-RateLimit-Limit header, got %q", rec.Header().Get("X-RateLimit-Limit"))
		}
		if rec.Header().Get("X-RateLimit-Remaining") == "" {
			t.Error("Expected X-RateLimit-Remaining header")
		}
	})

	t.Run("Exhausted bucket returns 429", func(t *testing.T) {
		// Search costs 50 tokens; 1000-token bucket allows 20 before refill matters
		var lastCode int
		for i := 0; i < 25; i++ {
			req := httptest.NewRequest("GET", "/search/amoxicillin", nil)
			req.RemoteAddr = "10.2.2.2:1000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			lastCode = rec.Code
		}

		if lastCode != http.StatusTooManyRequests {
			t.Errorf("Expected 429 after exhausting bucket, got %d", lastCode)
		}
	})

	t.Run("Clients have independent buckets", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search/amoxicillin", nil)
		req.RemoteAddr = "10.3.3.3:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Fresh client should not be rate limited, got %d", rec.Code)
		}
	})

	t.Run("Metrics scrapes are never limited", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest("GET", "/metrics", nil)
			req.RemoteAddr = "10.4.4.4:1000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("Metrics scrape %d got %d, expected 200", i, rec.Code)
			}
		}
	})
}
