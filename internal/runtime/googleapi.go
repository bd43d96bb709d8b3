// internal/runtime/googleapi.go — adapts *gmail.Service to our small interface
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	gc "github.com/joshsymonds/mboxherd/internal/gmail"
	"github.com/joshsymonds/mboxherd/internal/rate"
)

type googleClient struct {
	svc        *gmail.Service
	user       string
	maxRetries int
	limiter    rate.Limiter
}

// NewGoogleAPIClient wraps a delegated *gmail.Service for one user.
// maxRetries bounds the exponential backoff applied to transient failures.
func NewGoogleAPIClient(svc *gmail.Service, user string, maxRetries int, limiter rate.Limiter) *googleClient {
	return &googleClient{svc: svc, user: user, maxRetries: maxRetries, limiter: limiter}
}

func (g *googleClient) ListLabels(ctx context.Context) ([]gc.Label, error) {
	var labels []gc.Label
	err := g.call(ctx, func() error {
		res, err := g.svc.Users.Labels.List(g.user).Fields("labels(id,name)").Context(ctx).Do()
		if err != nil {
			return err
		}
		labels = labels[:0]
		for _, l := range res.Labels {
			labels = append(labels, gc.Label{ID: gc.LabelID(l.Id), Name: l.Name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list labels for %s: %w", g.user, err)
	}
	return labels, nil
}

func (g *googleClient) CreateLabel(ctx context.Context, name string) (gc.Label, error) {
	var out gc.Label
	err := g.call(ctx, func() error {
		created, err := g.svc.Users.Labels.Create(g.user, &gmail.Label{
			Name:                  name,
			MessageListVisibility: "show",
			LabelListVisibility:   "labelShow",
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = gc.Label{ID: gc.LabelID(created.Id), Name: created.Name}
		return nil
	})
	if err != nil {
		return gc.Label{}, fmt.Errorf("create label %q: %w", name, err)
	}
	return out, nil
}

func (g *googleClient) ImportMessage(ctx context.Context, label gc.LabelID, raw []byte) (gc.MessageID, error) {
	var id gc.MessageID
	err := g.call(ctx, func() error {
		// Media upload allows messages over the metadata size cap. The call
		// is rebuilt per attempt because the media reader is consumed.
		call := g.svc.Users.Messages.Import(g.user, &gmail.Message{LabelIds: []string{string(label)}}).
			InternalDateSource("dateHeader").
			NeverMarkSpam(true).
			ProcessForCalendar(false).
			Fields("id").
			Media(bytes.NewReader(raw), googleapi.ContentType("message/rfc822"))
		res, err := call.Context(ctx).Do()
		if err != nil {
			return err
		}
		id = gc.MessageID(res.Id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("import message for %s: %w", g.user, err)
	}
	return id, nil
}

// call runs fn, retrying transient API failures with exponential backoff up
// to the configured retry ceiling.
func (g *googleClient) call(ctx context.Context, fn func() error) error {
	bo := gax.Backoff{Initial: time.Second, Max: 30 * time.Second, Multiplier: 2}
	for attempt := 0; ; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= g.maxRetries || !transient(err) {
			return err
		}
		if serr := gax.Sleep(ctx, bo.Pause()); serr != nil {
			return serr
		}
	}
}

func transient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}
	return false
}

var _ gc.Client = (*googleClient)(nil)
