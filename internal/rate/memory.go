package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// MemoryLimiter es un token bucket por clave, para instancias sin Redis.
// Max requests por Window, con burst = Max.
type MemoryLimiter struct {
	Max    int
	Window time.Duration

	mu          sync.Mutex
	limiters    map[string]*xrate.Limiter
	lastCleanup time.Time
	now         func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		Max:         max,
		Window:      window,
		limiters:    make(map[string]*xrate.Limiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *MemoryLimiter) get(key string, now time.Time) *xrate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// limpiar buckets llenos (inactivos) cada 5 minutos
	if now.Sub(l.lastCleanup) >= 5*time.Minute {
		l.lastCleanup = now
		for k, lim := range l.limiters {
			if lim.TokensAt(now) >= float64(l.Max) {
				delete(l.limiters, k)
			}
		}
	}
	lim, ok := l.limiters[key]
	if !ok {
		every := l.Window / time.Duration(l.Max)
		lim = xrate.NewLimiter(xrate.Every(every), l.Max)
		l.limiters[key] = lim
	}
	return lim
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	lim := l.get(key, now)
	if lim.AllowN(now, 1) {
		return Result{Allowed: true, Remaining: int64(lim.TokensAt(now)), WindowTTL: l.Window}, nil
	}
	r := lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay < time.Second {
		delay = time.Second
	}
	return Result{Allowed: false, RetryAfter: delay, WindowTTL: l.Window}, nil
}
