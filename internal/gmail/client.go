package gmail

import "context"

// Client is the narrow Gmail surface required by mboxherd: list a user's
// labels once at user start, create missing labels on demand, and import
// raw RFC-822 messages under a label.
type Client interface {
	ListLabels(ctx context.Context) ([]Label, error)
	CreateLabel(ctx context.Context, name string) (Label, error)
	ImportMessage(ctx context.Context, label LabelID, raw []byte) (MessageID, error)
}
