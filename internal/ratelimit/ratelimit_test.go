package ratelimit_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AnishKajan/ComicGuess-sub002/internal/ratelimit"
)

func testLimiter(maxRequests int, window time.Duration) *ratelimit.Limiter {
	return ratelimit.New(map[string]ratelimit.ClassLimits{
		ratelimit.ClassGeneral: {
			IP:   ratelimit.Limit{MaxRequests: maxRequests, Window: window},
			User: ratelimit.Limit{MaxRequests: maxRequests, Window: window},
		},
	}, time.Hour)
}

func TestSlidingWindowAdmitsUpToLimit(t *testing.T) {
	lim := testLimiter(3, 5*time.Second)
	base := time.Now()

	for i := 0; i < 3; i++ {
		d := lim.AdmitIP("1.2.3.4", ratelimit.ClassGeneral, base.Add(time.Duration(i)*time.Second))
		if !d.Allowed {
			t.Fatalf("Request %d should be admitted", i+1)
		}
	}

	d := lim.AdmitIP("1.2.3.4", ratelimit.ClassGeneral, base.Add(3*time.Second))
	if d.Allowed {
		t.Fatal("Fourth request inside the window should be denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 5*time.Second {
		t.Errorf("RetryAfter = %v, want in (0, 5s]", d.RetryAfter)
	}
	// Oldest stamp is at base; it leaves the window at base+5s, so from
	// base+3s the wait is exactly 2s.
	if d.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", d.RetryAfter)
	}
}

func TestSlidingWindowRecoverAfterWindow(t *testing.T) {
	lim := testLimiter(3, 5*time.Second)
	base := time.Now()

	for i := 0; i < 3; i++ {
		lim.AdmitIP("1.2.3.4", ratelimit.ClassGeneral, base)
	}
	if d := lim.AdmitIP("1.2.3.4", ratelimit.ClassGeneral, base.Add(time.Second)); d.Allowed {
		t.Fatal("Over-limit request should be denied")
	}
	if d := lim.AdmitIP("1.2.3.4", ratelimit.ClassGeneral, base.Add(6*time.Second)); !d.Allowed {
		t.Fatal("Request after the window passed should be admitted")
	}
}

func TestWindowSlidesRatherThanResets(t *testing.T) {
	lim := testLimiter(2, 10*time.Second)
	base := time.Now()

	lim.AdmitIP("k", ratelimit.ClassGeneral, base)
	lim.AdmitIP("k", ratelimit.ClassGeneral, base.Add(8*time.Second))

	// base has expired at +11s but +8s has not; only one slot is free.
	if d := lim.AdmitIP("k", ratelimit.ClassGeneral, base.Add(11*time.Second)); !d.Allowed {
		t.Fatal("Slot freed by expired stamp should admit")
	}
	if d := lim.AdmitIP("k", ratelimit.ClassGeneral, base.Add(11*time.Second)); d.Allowed {
		t.Fatal("Window still holds two recent stamps, should deny")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	lim := testLimiter(1, time.Minute)
	now := time.Now()

	if d := lim.AdmitIP("1.1.1.1", ratelimit.ClassGeneral, now); !d.Allowed {
		t.Fatal("First key should be admitted")
	}
	if d := lim.AdmitIP("2.2.2.2", ratelimit.ClassGeneral, now); !d.Allowed {
		t.Fatal("Different key should not share a window")
	}
	if d := lim.AdmitIP("1.1.1.1", ratelimit.ClassGeneral, now); d.Allowed {
		t.Fatal("Same key should be over its limit")
	}
}

func TestCheckDeniesWhenEitherDimensionOver(t *testing.T) {
	lim := ratelimit.New(map[string]ratelimit.ClassLimits{
		ratelimit.ClassGuess: {
			IP:   ratelimit.Limit{MaxRequests: 100, Window: time.Minute},
			User: ratelimit.Limit{MaxRequests: 2, Window: time.Minute},
		},
	}, time.Hour)
	now := time.Now()

	for i := 0; i < 2; i++ {
		if d := lim.Check("9.9.9.9", "u1", ratelimit.ClassGuess, now); !d.Allowed {
			t.Fatalf("Request %d should pass both dimensions", i+1)
		}
	}
	if d := lim.Check("9.9.9.9", "u1", ratelimit.ClassGuess, now); d.Allowed {
		t.Fatal("User dimension over limit should deny even though IP is fine")
	}
	// A different user behind the same address is still admitted.
	if d := lim.Check("9.9.9.9", "u2", ratelimit.ClassGuess, now); !d.Allowed {
		t.Fatal("Different user on same IP should be admitted")
	}
	// No user identity: address-only check.
	if d := lim.Check("9.9.9.9", "", ratelimit.ClassGuess, now); !d.Allowed {
		t.Fatal("Anonymous request under the IP limit should be admitted")
	}
}

func TestUnknownClassFallsBackToGeneral(t *testing.T) {
	lim := testLimiter(1, time.Minute)
	now := time.Now()
	if d := lim.AdmitIP("k", "no-such-class", now); !d.Allowed {
		t.Fatal("Unknown class should fall back to general limits")
	}
	if d := lim.AdmitIP("k", "no-such-class", now); d.Allowed {
		t.Fatal("Fallback limits should still be enforced")
	}
}

func TestSweepDropsIdleWindows(t *testing.T) {
	lim := ratelimit.New(nil, time.Minute)
	now := time.Now()

	for i := 0; i < 5; i++ {
		lim.AdmitIP(fmt.Sprintf("10.0.0.%d", i), ratelimit.ClassGeneral, now)
	}
	if lim.Size() != 5 {
		t.Fatalf("Size = %d, want 5", lim.Size())
	}

	lim.Sweep(now.Add(2 * time.Minute))
	if lim.Size() != 0 {
		t.Errorf("Size after sweep = %d, want 0", lim.Size())
	}
}

func TestConcurrentAdmissionRespectsLimit(t *testing.T) {
	lim := testLimiter(50, time.Minute)
	now := time.Now()

	var wg sync.WaitGroup
	admitted := make([]bool, 200)
	for i := range admitted {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			admitted[i] = lim.AdmitIP("shared", ratelimit.ClassGeneral, now.Add(time.Duration(i)*time.Millisecond)).Allowed
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("Admitted %d of 200 concurrent requests, want exactly 50", count)
	}
}

func TestClientKeyDerivation(t *testing.T) {
	cases := []struct {
		forwardedFor string
		peer         string
		expected     string
	}{
		{"1.2.3.4, 5.6.7.8", "9.9.9.9:1234", "1.2.3.4"},
		{" 1.2.3.4 ", "", "1.2.3.4"},
		{"", "9.9.9.9:1234", "9.9.9.9"},
		{"", "9.9.9.9", "9.9.9.9"},
		{"", "[::1]:8080", "::1"},
		{"", "", ratelimit.UnknownKey},
		{"   ", "", ratelimit.UnknownKey},
	}
	for _, c := range cases {
		if got := ratelimit.ClientKey(c.forwardedFor, c.peer); got != c.expected {
			t.Errorf("ClientKey(%q, %q) = %q, want %q", c.forwardedFor, c.peer, got, c.expected)
		}
	}
}
