package bus

import (
	"sort"
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("node", "rain", "signal"))
	conn.Publish(conn.NewMessage(T("node", "rain", "signal"), "hello", false))

	expectOneOf(t, sub, "hello")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("node", "soil", "state"), "persist", true))
	sub := conn.Subscribe(T("node", "soil", "state"))

	expectOneOf(t, sub, "persist")
}

func TestNonRetainedNotReplayed(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("zero", "warning"), "gone", false))
	sub := conn.Subscribe(T("zero", "warning"))
	expectNoMessage(t, sub)
}

func TestMatch(t *testing.T) {
	cases := []struct {
		filter, topic Topic
		want          bool
	}{
		{T("a", "b"), T("a", "b"), true},
		{T("a", "b"), T("a", "c"), false},
		{T("a", "+"), T("a", "x"), true},
		{T("a", "+"), T("a", "x", "y"), false},
		{T("a", "+", "c"), T("a", "c"), false},
		{T("a", "#"), T("a"), true},
		{T("a", "#"), T("a", "b", "c"), true},
		{T("#"), T("x"), true},
		{T("a", "b", "#"), T("a"), false},
		{T("a"), T("a", "b"), false},
	}
	for _, c := range cases {
		if got := Match(c.filter, c.topic); got != c.want {
			t.Fatalf("Match(%s, %s) = %v, want %v", c.filter, c.topic, got, c.want)
		}
	}
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sState := c.Subscribe(T("node", "+", "state"))
	sAny := c.Subscribe(T("node", "+", "+"))
	sNo := c.Subscribe(T("node", "+", "verdict"))

	c.Publish(b.NewMessage(T("node", "seismic", "state"), "m1", false))
	expectOneOf(t, sState, "m1")
	expectOneOf(t, sAny, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(T("node", "seismic"), "m2", false))
	expectNoMessage(t, sState)
	expectNoMessage(t, sAny)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sNode := c.Subscribe(T("node", "#"))
	sAll := c.Subscribe(T("#"))
	sExact := c.Subscribe(T("node"))

	c.Publish(b.NewMessage(T("node"), "p1", false))
	expectOneOf(t, sNode, "p1")
	expectOneOf(t, sAll, "p1")
	expectOneOf(t, sExact, "p1")

	c.Publish(b.NewMessage(T("node", "rain", "verdict"), "p2", false))
	expectOneOf(t, sNode, "p2")
	expectOneOf(t, sAll, "p2")
	expectNoMessage(t, sExact)

	c.Publish(b.NewMessage(T("zero", "warning"), "p3", false))
	expectOneOf(t, sAll, "p3")
	expectNoMessage(t, sNode)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("node", "rain", "state"), "r1", true))
	c.Publish(b.NewMessage(T("node", "rain", "verdict"), "r2", true))
	c.Publish(b.NewMessage(T("node", "soil", "state"), "r3", true))

	all := drainPayloads(t, c.Subscribe(T("node", "#")), 3)
	assertUnorderedEqual(t, all, []string{"r1", "r2", "r3"})

	states := drainPayloads(t, c.Subscribe(T("node", "+", "state")), 2)
	assertUnorderedEqual(t, states, []string{"r1", "r3"})
}

func TestRetainedReplacedAndCleared(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("node", "soil", "state"), "active", true))
	c.Publish(b.NewMessage(T("node", "soil", "state"), "suspended", true))
	c.Publish(b.NewMessage(T("node", "rain", "state"), "keep", true))
	c.Publish(b.NewMessage(T("node", "rain", "state"), nil, true))

	got := drainPayloads(t, c.Subscribe(T("node", "#")), 1)
	if got[0] != "suspended" {
		t.Fatalf("got %v", got)
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("zero", "warning"))

	for _, p := range []string{"w1", "w2", "w3"} {
		c.Publish(b.NewMessage(T("zero", "warning"), p, false))
	}
	got := drainPayloads(t, s, 2)
	if got[0] != "w2" || got[1] != "w3" {
		t.Fatalf("got %v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s := c.Subscribe(T("a"))

	s.Unsubscribe()
	s.Unsubscribe()
	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel still open")
	}
	c.Publish(b.NewMessage(T("a"), "late", false))
}

func TestDisconnectClosesAll(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("sim")
	s1 := c.Subscribe(T("node", "#"))
	s2 := c.Subscribe(T("zero", "#"))

	c.Disconnect()
	for _, s := range []*Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatalf("%s still open", s.Topic())
		}
	}
	if c.ID() != "sim" {
		t.Fatalf("id %q", c.ID())
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload in drain: %#v", m.Payload)
			}
			out = append(out, s)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("drainPayloads: expected %d messages, got %d (%v)", n, len(out), out)
	}
	expectNoMessage(t, sub)
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}
