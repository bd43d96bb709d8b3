package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate-limited", err: &googleapi.Error{Code: 429}, want: true},
		{name: "server-error", err: &googleapi.Error{Code: 503}, want: true},
		{name: "bad-request", err: &googleapi.Error{Code: 400}, want: false},
		{name: "not-found", err: &googleapi.Error{Code: 404}, want: false},
		{name: "wrapped", err: fmt.Errorf("import: %w", &googleapi.Error{Code: 500}), want: true},
		{name: "plain", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			if got := transient(tc.err); got != tc.want {
				t.Fatalf("transient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestImportMessageWrapsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid rfc822 payload"}}`))
	}))
	defer ts.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(ts.Client()),
		option.WithEndpoint(ts.URL),
	)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	client := NewGoogleAPIClient(svc, "u@example.com", 0, nil)
	_, err = client.ImportMessage(context.Background(), "Label_1", []byte("From: a@example.com\r\n\r\nbody\r\n"))
	if err == nil {
		t.Fatalf("expected import failure")
	}
	if !strings.Contains(err.Error(), "import message for u@example.com") {
		t.Fatalf("error not wrapped with user context: %v", err)
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("underlying API error lost: %v", err)
	}
}
