package mock

import (
	"context"

	"github.com/fwojciec/oadigest"
)

var _ oadigest.Mailer = (*Mailer)(nil)

// Mailer is a mock implementation of oadigest.Mailer.
type Mailer struct {
	SendFn func(ctx context.Context, msg *oadigest.Message) error
}

func (m *Mailer) Send(ctx context.Context, msg *oadigest.Message) error {
	return m.SendFn(ctx, msg)
}

var _ oadigest.Converter = (*Converter)(nil)

// Converter is a mock implementation of oadigest.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
