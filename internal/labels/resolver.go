// Package labels resolves hierarchical label paths to Gmail label IDs,
// creating missing labels on demand.
package labels

import (
	"context"
	"fmt"
	"strings"

	"github.com/joshsymonds/mboxherd/internal/gmail"
)

// Resolver caches one user's label set in memory. The cache is loaded once
// at user start and appended to as labels are created; there is no re-fetch
// during a run.
type Resolver struct {
	client gmail.Client
	known  []gmail.Label
}

// NewResolver lists the user's labels and returns a resolver over them.
func NewResolver(ctx context.Context, client gmail.Client) (*Resolver, error) {
	known, err := client.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	return &Resolver{client: client, known: known}, nil
}

// Resolve returns the label ID for labelPath, creating the label if no
// case-insensitive match exists. Matching is case-insensitive but creation
// is case-preserving, so the first-created casing wins on collision.
func (r *Resolver) Resolve(ctx context.Context, labelPath string) (gmail.LabelID, error) {
	for _, l := range r.known {
		if strings.EqualFold(l.Name, labelPath) {
			return l.ID, nil
		}
	}
	created, err := r.client.CreateLabel(ctx, labelPath)
	if err != nil {
		return "", fmt.Errorf("resolve label %q: %w", labelPath, err)
	}
	r.known = append(r.known, created)
	return created.ID, nil
}

// Known reports how many labels the resolver currently tracks.
func (r *Resolver) Known() int { return len(r.known) }
