package publisher

import (
	"context"

	"github.com/eringen/storyboard/internal/domain"
)

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.SlugEvent) error { return nil }

func (Nop) Close() error { return nil }
