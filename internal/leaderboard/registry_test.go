package leaderboard

import (
	"testing"
)

func TestRegistry_SubscribeNotify(t *testing.T) {
	r := NewRegistry[int](nil)

	var got []int
	r.Subscribe(func(v int) { got = append(got, v) })
	r.Subscribe(func(v int) { got = append(got, v*10) })

	r.Notify(7)

	if len(got) != 2 || got[0] != 7 || got[1] != 70 {
		t.Errorf("got = %v, want [7 70]", got)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRegistry_DuplicateMemberships(t *testing.T) {
	r := NewRegistry[int](nil)

	calls := 0
	fn := func(int) { calls++ }

	unsub1 := r.Subscribe(fn)
	unsub2 := r.Subscribe(fn)

	r.Notify(1)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (two independent memberships)", calls)
	}

	// Unsubscribing once leaves the other membership active
	unsub1()
	calls = 0
	r.Notify(1)
	if calls != 1 {
		t.Errorf("calls = %d, want 1 after one unsubscribe", calls)
	}

	unsub2()
	calls = 0
	r.Notify(1)
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after both unsubscribes", calls)
	}
}

func TestRegistry_UnsubscribeTwice(t *testing.T) {
	r := NewRegistry[int](nil)

	calls := 0
	r.Subscribe(func(int) { calls++ })
	unsub := r.Subscribe(func(int) { calls++ })

	unsub()
	unsub() // second call must not remove the other membership

	r.Notify(1)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRegistry_PanicIsolation(t *testing.T) {
	r := NewRegistry[int](nil)

	r.Subscribe(func(int) { panic("listener exploded") })

	called := false
	r.Subscribe(func(int) { called = true })

	r.Notify(1)

	if !called {
		t.Error("later-registered listener not invoked after earlier panic")
	}
}

func TestRegistry_ReentrantMutation(t *testing.T) {
	r := NewRegistry[int](nil)

	var unsub func()
	unsub = r.Subscribe(func(int) {
		// A listener removing itself mid-delivery must not break
		// iteration.
		unsub()
		r.Subscribe(func(int) {})
	})
	r.Subscribe(func(int) {})

	r.Notify(1)

	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2 after reentrant mutation", r.Len())
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry[int](nil)

	calls := 0
	unsub := r.Subscribe(func(int) { calls++ })
	r.Subscribe(func(int) { calls++ })

	r.Clear()

	r.Notify(1)
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after Clear", calls)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Clear", r.Len())
	}

	// Stale unsubscribe closures are inert
	unsub()
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
