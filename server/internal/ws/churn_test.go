package ws

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/store"
)

func newClient() *client {
	return &client{send: make(chan []byte, sendBufSize), done: make(chan struct{})}
}

// Clients come and go while calculations are published from several
// request goroutines at once.
func TestHub_PublishDuringClientChurn(t *testing.T) {
	h := New(store.New(time.Minute), time.Hour, nil)
	rep := &types.Report{RunID: "r1", Result: &types.Result{Audit: types.AuditInfo{AuditID: "1"}}}

	live := make([]*client, 0, 64)
	for i := 0; i < 64; i++ {
		c := newClient()
		h.register(c)
		live = append(live, c)
	}

	stop := make(chan struct{})
	panics := make(chan string, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- fmt.Sprint(r)
				}
			}()
			for {
				select {
				case <-stop:
					return
				default:
					h.Publish(rep)
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		h.unregister(live[0])
		live = live[1:]
		c := newClient()
		h.register(c)
		live = append(live, c)
		// Drain so clients are not all dropped as slow.
		for _, c := range live {
			select {
			case <-c.send:
			default:
			}
		}
	}
	close(stop)
	wg.Wait()
	close(panics)

	for p := range panics {
		t.Errorf("publish panicked: %s", p)
	}
	if n := h.Count(); n > 64 {
		t.Errorf("Count: got %d, want at most 64", n)
	}
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := New(store.New(time.Minute), time.Hour, nil)
	c := newClient()
	h.register(c)

	h.unregister(c)
	h.unregister(c)
	h.closeAll()

	select {
	case <-c.done:
	default:
		t.Error("done: not closed after unregister")
	}
	if n := h.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}
}
