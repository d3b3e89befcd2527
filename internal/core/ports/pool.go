package ports

import (
	"context"
	"time"
)

type Pool interface {
	Go(task func(ctx context.Context) error) error
	Wait() error
	Stats() (started, completed int, avgWaitTime time.Duration)
}
