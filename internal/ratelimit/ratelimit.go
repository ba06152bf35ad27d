// Package ratelimit implements the sliding-window request limiter that
// gatekeeps gameplay endpoints. Windows are process-local: each serving
// process keeps its own, so limits are probabilistic under horizontal
// scale-out. That is a documented property, not a defect.
package ratelimit

import (
	"sort"
	"sync"
	"time"

	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

// Limit is one (maxRequests, window) pair.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// ClassLimits holds the independent network-address and user dimensions for
// one endpoint class. A request must clear both to be admitted.
type ClassLimits struct {
	IP   Limit
	User Limit
}

// Endpoint classes.
const (
	ClassGuess   = "guess"
	ClassGeneral = "general"
)

// DefaultLimits mirrors the production configuration: guess submission is
// tighter than general traffic on both dimensions.
func DefaultLimits() map[string]ClassLimits {
	return map[string]ClassLimits{
		ClassGuess: {
			IP:   Limit{MaxRequests: 30, Window: time.Minute},
			User: Limit{MaxRequests: 10, Window: time.Minute},
		},
		ClassGeneral: {
			IP:   Limit{MaxRequests: 100, Window: time.Minute},
			User: Limit{MaxRequests: 60, Window: time.Minute},
		},
	}
}

// Decision is the outcome of an admission check. RetryAfter is only set on
// denial: the time until the oldest retained request leaves the window.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type window struct {
	mu         sync.Mutex
	stamps     []time.Time
	lastAccess time.Time
}

// Limiter owns the per-(key, class) sliding windows. The outer map is guarded
// by an RWMutex; each window carries its own lock so unrelated clients never
// serialize on one another.
type Limiter struct {
	mu      sync.RWMutex
	windows map[string]*window
	limits  map[string]ClassLimits
	ttl     time.Duration
}

func New(limits map[string]ClassLimits, ttl time.Duration) *Limiter {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Limiter{
		windows: make(map[string]*window),
		limits:  limits,
		ttl:     ttl,
	}
}

func (l *Limiter) class(name string) ClassLimits {
	if c, ok := l.limits[name]; ok {
		return c
	}
	return l.limits[ClassGeneral]
}

func (l *Limiter) getWindow(key string) *window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[key]; ok {
		return w
	}
	w = &window{}
	l.windows[key] = w
	return w
}

// admit runs the sliding-window check for one bucket. Timestamps older than
// the window are purged before every check; on admission now is appended.
func (l *Limiter) admit(bucket string, lim Limit, now time.Time) Decision {
	if lim.MaxRequests <= 0 {
		return Decision{Allowed: true}
	}

	w := l.getWindow(bucket)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastAccess = now
	cutoff := now.Add(-lim.Window)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= lim.MaxRequests {
		oldest := w.stamps[0]
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: oldest.Add(lim.Window).Sub(now),
		}
	}

	w.stamps = append(w.stamps, now)
	return Decision{Allowed: true, Remaining: lim.MaxRequests - len(w.stamps)}
}

// AdmitIP checks the network-address dimension for one endpoint class.
func (l *Limiter) AdmitIP(ip, class string, now time.Time) Decision {
	return l.admit("ip:"+ip+"|"+class, l.class(class).IP, now)
}

// AdmitUser checks the authenticated-user dimension for one endpoint class.
func (l *Limiter) AdmitUser(userID, class string, now time.Time) Decision {
	return l.admit("user:"+userID+"|"+class, l.class(class).User, now)
}

// Check runs both dimensions. userID may be empty, in which case only the
// address dimension applies. The first dimension to deny wins; an admitted
// address-dimension slot is consumed even when the user dimension denies,
// matching the original service.
func (l *Limiter) Check(ip, userID, class string, now time.Time) Decision {
	d := l.AdmitIP(ip, class, now)
	if !d.Allowed {
		return d
	}
	if userID == "" {
		return d
	}
	return l.AdmitUser(userID, class, now)
}

const emergencyWindowCap = 50000

// Sweep drops windows idle past the TTL, and when the map has grown far past
// any sane working set, trims the oldest half regardless of TTL.
func (l *Limiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.ttl)
	removed := 0
	for key, w := range l.windows {
		w.mu.Lock()
		stale := w.lastAccess.Before(cutoff)
		w.mu.Unlock()
		if stale {
			delete(l.windows, key)
			removed++
		}
	}

	if len(l.windows) > emergencyWindowCap {
		util.LogWarn("Rate limiter map too large (%d entries), performing emergency cleanup", len(l.windows))
		type entry struct {
			key        string
			lastAccess time.Time
		}
		entries := make([]entry, 0, len(l.windows))
		for key, w := range l.windows {
			w.mu.Lock()
			entries = append(entries, entry{key: key, lastAccess: w.lastAccess})
			w.mu.Unlock()
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].lastAccess.Before(entries[j].lastAccess)
		})
		for i := 0; i < len(entries)/2; i++ {
			delete(l.windows, entries[i].key)
			removed++
		}
	}

	if removed > 0 {
		util.LogInfo("Cleaned up %d stale rate limit windows", removed)
	}
}

// Size reports the current number of tracked windows.
func (l *Limiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}
