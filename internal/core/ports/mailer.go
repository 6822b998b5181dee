package ports

import (
	"context"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, m domain.Mail) error
}

// Notifier queues a message for best-effort background delivery.
type Notifier interface {
	Notify(m domain.Mail)
}
