package application

import "context"

// Worker is a background process. Implementations run until the context is
// canceled.
type Worker interface {
	Start(ctx context.Context)
}
