package middleware

import "testing"

func TestRuleForPicksMostSpecificPrefix(t *testing.T) {
	rl := NewRateLimiter(nil)

	tests := []struct {
		path        string
		wantClass   string
		wantMaxReqs int
	}{
		{"/api/v1/auth/otp/request", "/api/v1/auth/otp", 5},
		{"/api/v1/auth/otp/verify", "/api/v1/auth/otp", 5},
		{"/api/v1/auth/login", "/api/v1/auth", 30},
		{"/api/v1/payments/callback", "/api/v1/payments", 20},
		{"/api/v1/cases", "default", 100},
		{"/health", "default", 100},
	}

	for _, tc := range tests {
		class, rule := rl.ruleFor(tc.path)
		if class != tc.wantClass {
			t.Errorf("ruleFor(%q) class = %q, want %q", tc.path, class, tc.wantClass)
		}
		if rule.MaxRequests != tc.wantMaxReqs {
			t.Errorf("ruleFor(%q) max = %d, want %d", tc.path, rule.MaxRequests, tc.wantMaxReqs)
		}
	}
}

func TestRuleForIsDeterministic(t *testing.T) {
	rl := NewRateLimiter(nil)

	seen := map[string]int{}
	for i := 0; i < 2000; i++ {
		class, _ := rl.ruleFor("/api/v1/auth/otp/request")
		seen[class]++
	}
	if len(seen) != 1 {
		t.Fatalf("same path mapped to multiple counter classes: %v", seen)
	}
	if seen["/api/v1/auth/otp"] != 2000 {
		t.Fatalf("classes seen: %v, want only /api/v1/auth/otp", seen)
	}
}
