package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/juju/clock"
)

type bucket struct {
	count int
	until time.Time
}

// RateLimit allows limit requests per client IP in each window of length per.
// At most maxClients buckets are tracked; the least recently seen are evicted.
func RateLimit(limit int, per time.Duration, maxClients int, clk clock.Clock) func(http.Handler) http.Handler {
	if clk == nil {
		clk = clock.WallClock
	}
	if maxClients <= 0 {
		maxClients = 4096
	}
	buckets, err := lru.New(maxClients)
	if err != nil {
		panic(err)
	}
	var mu sync.Mutex
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			now := clk.Now()
			mu.Lock()
			var b *bucket
			if v, ok := buckets.Get(ip); ok {
				b = v.(*bucket)
			}
			if b == nil || now.After(b.until) {
				b = &bucket{until: now.Add(per)}
				buckets.Add(ip, b)
			}
			if b.count >= limit {
				mu.Unlock()
				w.Header().Set("Retry-After", retryAfter(b.until.Sub(now)))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			b.count++
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
