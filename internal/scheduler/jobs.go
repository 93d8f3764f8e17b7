package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/chat-service/internal/logger"
)

const (
	JobTypingSweep  = "typing-sweep"
	JobStorageProbe = "storage-probe"
)

type TypingExpirer interface {
	ExpireTyping(now time.Time) int
}

// TypingSweep stops users whose typing signal went silent.
func TypingSweep(b TypingExpirer, now func() time.Time) func() {
	if now == nil {
		now = time.Now
	}

	return func() {
		if n := b.ExpireTyping(now()); n > 0 {
			logger.L().Debug("typing expired", slog.Int("users", n))
		}
	}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageProbe pings storage and reports the result to setServing.
// Only transitions are logged.
func StorageProbe(ctx context.Context, p Pinger, timeout time.Duration, setServing func(bool)) func() {
	var last atomic.Int32 // 0 неизвестно, 1 ok, 2 down

	return func() {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := p.Ping(pctx)
		setServing(err == nil)

		state := int32(1)
		if err != nil {
			state = 2
		}
		if prev := last.Swap(state); prev != state {
			if err != nil {
				logger.L().Error("storage probe failed", slog.Any("err", err))
			} else {
				logger.L().Info("storage probe ok")
			}
		}
	}
}
