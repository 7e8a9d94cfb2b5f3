package notify

import "context"

// Notifier delivers a plain text message to one destination.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
