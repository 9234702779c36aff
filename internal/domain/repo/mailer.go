package repo

import "context"

// Mailer delivers a templated message. Delivery is best effort; callers
// dispatch it off the request path and only log failures.
type Mailer interface {
	Send(ctx context.Context, to, templateName string, vars map[string]any) error
}
