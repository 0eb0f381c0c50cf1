package broadcast

import (
	"testing"
	"time"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	p := New[int]()
	ch1, unsub1 := p.Subscribe()
	defer unsub1()
	ch2, unsub2 := p.Subscribe()
	defer unsub2()

	p.Publish(42)

	if got := <-ch1; got != 42 {
		t.Errorf("subscriber 1 got %d, want 42", got)
	}
	if got := <-ch2; got != 42 {
		t.Errorf("subscriber 2 got %d, want 42", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	p := New[string]()
	ch, unsub := p.Subscribe()
	unsub()

	if _, ok := <-ch; ok {
		t.Errorf("channel still open after unsubscribe")
	}
}

func TestUnsubscribedListenerReceivesNothingFurther(t *testing.T) {
	p := New[int]()
	ch, unsub := p.Subscribe()
	unsub()

	p.Publish(1) // must not panic or block despite no subscribers

	if _, ok := <-ch; ok {
		t.Errorf("unsubscribed channel delivered a value")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	p := New[int]()
	_, unsub := p.Subscribe()
	defer unsub()

	// The subscriber channel buffers 32 values and nothing reads it here;
	// publishing more than that must drop the excess rather than block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			p.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
