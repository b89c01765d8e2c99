package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReverseGeocode(t *testing.T) {
	t.Parallel()

	t.Run("decodes the display name", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/reverse" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if got := r.URL.Query().Get("lat"); got != "37.5665" {
				t.Errorf("unexpected lat %q", got)
			}
			if got := r.URL.Query().Get("lon"); got != "126.978" {
				t.Errorf("unexpected lon %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(map[string]string{"display_name": "서울특별시 중구 세종대로 110"}); err != nil {
				t.Errorf("failed to encode response: %v", err)
			}
		}))
		defer server.Close()

		client := NewGeocodeClient(server.URL, server.Client())
		address, err := client.ReverseGeocode(context.Background(), 37.5665, 126.978)
		if err != nil {
			t.Fatalf("ReverseGeocode returned error: %v", err)
		}
		if address != "서울특별시 중구 세종대로 110" {
			t.Fatalf("unexpected address %q", address)
		}
	})

	t.Run("propagates upstream failures", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewGeocodeClient(server.URL, server.Client())
		if _, err := client.ReverseGeocode(context.Background(), 0, 0); err == nil {
			t.Fatal("expected error for upstream failure")
		}
	})
}

func TestMailerSend(t *testing.T) {
	t.Parallel()

	t.Run("posts the message with bearer auth", func(t *testing.T) {
		t.Parallel()

		var received mailRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method %q", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("unexpected authorization header %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		mailer := NewMailer(server.URL, "test-key", "workdesk@example.com", server.Client())
		err := mailer.Send(context.Background(), []string{"user@example.com"}, "결재 알림", "<p>결재가 완료되었습니다.</p>")
		if err != nil {
			t.Fatalf("Send returned error: %v", err)
		}
		if received.From != "workdesk@example.com" {
			t.Errorf("unexpected from %q", received.From)
		}
		if len(received.To) != 1 || received.To[0] != "user@example.com" {
			t.Errorf("unexpected recipients %v", received.To)
		}
		if received.Subject != "결재 알림" {
			t.Errorf("unexpected subject %q", received.Subject)
		}
	})

	t.Run("rejects empty recipient list", func(t *testing.T) {
		t.Parallel()

		mailer := NewMailer("https://mail.invalid/emails", "key", "from@example.com", nil)
		if err := mailer.Send(context.Background(), nil, "subject", "body"); err == nil {
			t.Fatal("expected error for missing recipients")
		}
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer server.Close()

		mailer := NewMailer(server.URL, "bad", "from@example.com", server.Client())
		if err := mailer.Send(context.Background(), []string{"user@example.com"}, "subject", "body"); err == nil {
			t.Fatal("expected error for API failure")
		}
	})
}
