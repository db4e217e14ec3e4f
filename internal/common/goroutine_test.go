package common

import (
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func TestSafeGo_RunsFunction(t *testing.T) {
	done := make(chan struct{})
	SafeGo(arbor.NewLogger(), "worker", func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function did not run")
	}
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	panicked := make(chan struct{})
	SafeGo(nil, "panicker", func() {
		defer close(panicked)
		panic("boom")
	})
	<-panicked

	// An unrecovered panic would have aborted the test binary before this runs
	after := make(chan struct{})
	SafeGo(arbor.NewLogger(), "after", func() {
		close(after)
	})

	select {
	case <-after:
	case <-time.After(time.Second):
		t.Fatal("goroutine after panic did not run")
	}
}
