package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per client id and forgets clients that
// stay quiet longer than the expiry.
type Limiter struct {
	expiry  time.Duration
	burst   int
	limit   rate.Limit
	clients map[string]*clientLimiter
	mu      sync.Mutex
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewLimiter(burst int, expiry time.Duration, rps float64) *Limiter {
	lm := &Limiter{
		expiry:  expiry,
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
	go lm.sweep()
	return lm
}

func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[id]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[id] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter.Allow()
}

func (l *Limiter) sweep() {
	for {
		time.Sleep(time.Minute)

		l.mu.Lock()
		for id, v := range l.clients {
			if time.Since(v.lastAccess) > l.expiry {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts a per-event interval into a requests-per-second limit.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
