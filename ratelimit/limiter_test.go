package ratelimit

import "testing"

func TestAllowRespectsBurst(t *testing.T) {
	l := New(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("Allow(a) call %d = false, want true within burst", i)
		}
	}
	if l.Allow("a") {
		t.Error("Allow(a) after burst exhausted = true, want false")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := New(1, 1)

	if !l.Allow("a") {
		t.Fatal("Allow(a) = false, want true")
	}
	if !l.Allow("b") {
		t.Error("Allow(b) = false, want true — distinct key should have its own bucket")
	}
	if l.Allow("a") {
		t.Error("Allow(a) second call = true, want false (burst of 1 already spent)")
	}
}
