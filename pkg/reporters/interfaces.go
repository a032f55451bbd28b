package reporters

import "context"

// Reporter sends fetch events to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Reporter interface {
	ID() string
	Type() string
	Send(ctx context.Context, evt Event) error
	Close() error
}
