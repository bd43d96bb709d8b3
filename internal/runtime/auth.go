// internal/runtime/auth.go
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/mboxherd/internal/gmail"
	"github.com/joshsymonds/mboxherd/internal/rate"
)

// ClientOptions tunes the per-user clients minted by Credentials.
type ClientOptions struct {
	MaxRetries int
	Limiter    rate.Limiter
	HTTPDebug  bool
	Logger     *slog.Logger
}

// Credentials mints per-user delegated Gmail clients from a service-account
// key with domain-wide delegation. Scopes cover mail insertion and label
// management only.
type Credentials struct {
	key  []byte
	opts ClientOptions
}

// NewCredentials reads and validates the service-account key file.
func NewCredentials(keyPath string, opts ClientOptions) (*Credentials, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	if _, err := google.JWTConfigFromJSON(key, gmail.GmailInsertScope, gmail.GmailLabelsScope); err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = DefaultLogger()
	}
	return &Credentials{key: key, opts: opts}, nil
}

// UserClient returns a Gmail client acting as the given user.
func (c *Credentials) UserClient(ctx context.Context, user string) (gc.Client, error) {
	cfg, err := google.JWTConfigFromJSON(c.key, gmail.GmailInsertScope, gmail.GmailLabelsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	cfg.Subject = user
	if c.opts.HTTPDebug {
		base := &http.Client{Transport: &debugTransport{rt: http.DefaultTransport, log: c.opts.Logger}}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("build gmail service for %s: %w", user, err)
	}
	return NewGoogleAPIClient(svc, user, c.opts.MaxRetries, c.opts.Limiter), nil
}

// DefaultLogger logs human-readable, timestamped lines to stderr.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// NewLogger logs to w, typically stderr teed with a rotating log file.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
