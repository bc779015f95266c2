package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL must stay above the one minute refill window, so an evicted
// limiter would have been full again anyway.
const limiterIdleTTL = 10 * time.Minute

type rateLimiterStore struct {
	mu       sync.Mutex
	limiters *cache.Cache
	perMin   int
	trusted  []*net.IPNet
}

func newRateLimiterStore(perMinute int, idle time.Duration, trusted []*net.IPNet) *rateLimiterStore {
	if perMinute <= 0 {
		perMinute = 200
	}
	if idle <= 0 {
		idle = limiterIdleTTL
	}
	return &rateLimiterStore{
		limiters: cache.New(idle, idle),
		perMin:   perMinute,
		trusted:  trusted,
	}
}

// getLimiter returns the limiter of ip and pushes back its eviction.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.limiters.Get(ip); found {
		limiter := x.(*rate.Limiter)
		s.limiters.SetDefault(ip, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)
	s.limiters.SetDefault(ip, limiter)
	return limiter
}

func (s *rateLimiterStore) size() int {
	return s.limiters.ItemCount()
}

func (s *rateLimiterStore) isTrusted(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range s.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP is the socket peer unless that peer is a trusted proxy. Then
// X-Forwarded-For is walked from the right and the first untrusted hop wins.
func (s *rateLimiterStore) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !s.isTrusted(net.ParseIP(host)) {
		return host
	}

	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" {
		return host
	}
	hops := strings.Split(fwd, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := net.ParseIP(strings.TrimSpace(hops[i]))
		if hop == nil {
			return host
		}
		if !s.isTrusted(hop) {
			return hop.String()
		}
	}
	return host
}

// parseTrustedProxies accepts CIDR blocks and bare addresses.
func parseTrustedProxies(values []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			ip := net.ParseIP(v)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", v)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := s.limiter.clientIP(r)
		if !s.limiter.getLimiter(ip).Allow() {
			s.log.Warn("Rate limit exceeded", zap.String("ip", ip))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
