// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schedule

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesToLastTask(t *testing.T) {
	d := New()

	var executed atomic.Int32
	var got atomic.Int32
	done := make(chan struct{})

	// Five triggers inside the window: exactly one execution, carrying
	// the state of the last trigger.
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger("doc", 50*time.Millisecond, func() {
			executed.Add(1)
			got.Store(n)
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	// Give a stray second execution a chance to show up.
	time.Sleep(100 * time.Millisecond)

	if n := executed.Load(); n != 1 {
		t.Errorf("executed %d times, want 1", n)
	}
	if n := got.Load(); n != 5 {
		t.Errorf("ran task %d, want 5 (last trigger wins)", n)
	}
}

func TestDebouncer_ZeroDelayIsAsynchronous(t *testing.T) {
	d := New()

	var ran atomic.Bool
	done := make(chan struct{})
	d.Trigger("doc", 0, func() {
		ran.Store(true)
		close(done)
	})

	// Trigger must return before the task runs.
	if ran.Load() {
		t.Error("zero-delay task ran synchronously inside Trigger")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("zero-delay task never ran")
	}
}

func TestDebouncer_QueuesOneTaskWhileRunning(t *testing.T) {
	d := New()

	release := make(chan struct{})
	started := make(chan struct{})
	var order []int
	var mu sync.Mutex
	secondDone := make(chan struct{})

	d.Trigger("doc", 0, func() {
		close(started)
		<-release
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	<-started

	// Three triggers while the first task is executing: only the last one
	// survives as the single queued follow-up.
	for i := 2; i <= 4; i++ {
		n := i
		d.Trigger("doc", 0, func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			if n == 4 {
				close(secondDone)
			}
		})
	}
	close(release)

	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("queued task never ran")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 1 || order[1] != 4 {
		t.Errorf("execution order = %v, want [1 4]", order)
	}
}

func TestDebouncer_DisposeCancelsPending(t *testing.T) {
	d := New()

	var ran atomic.Bool
	d.Trigger("doc", 30*time.Millisecond, func() { ran.Store(true) })
	d.Dispose("doc")

	time.Sleep(100 * time.Millisecond)
	if ran.Load() {
		t.Error("disposed task still ran")
	}
	if d.Pending("doc") {
		t.Error("disposed key still pending")
	}
}

func TestDebouncer_DisposeDropsQueued(t *testing.T) {
	d := New()

	release := make(chan struct{})
	started := make(chan struct{})
	var queuedRan atomic.Bool

	d.Trigger("doc", 0, func() {
		close(started)
		<-release
	})
	<-started

	d.Trigger("doc", 0, func() { queuedRan.Store(true) })
	d.Dispose("doc")
	close(release)

	time.Sleep(100 * time.Millisecond)
	if queuedRan.Load() {
		t.Error("queued task ran after Dispose")
	}
}

func TestDebouncer_RetriggerAfterDisposeSerializes(t *testing.T) {
	d := New()

	release := make(chan struct{})
	started := make(chan struct{})
	firstFinished := make(chan struct{})
	overlap := make(chan struct{}, 1)
	done := make(chan struct{})

	d.Trigger("doc", 0, func() {
		close(started)
		<-release
		close(firstFinished)
	})
	<-started

	d.Dispose("doc")

	// Re-triggering the same key while the old execution is still running
	// must not produce a concurrent execution.
	d.Trigger("doc", 0, func() {
		select {
		case <-firstFinished:
		default:
			overlap <- struct{}{}
		}
		close(done)
	})

	time.Sleep(30 * time.Millisecond)
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("re-triggered task never ran")
	}
	select {
	case <-overlap:
		t.Error("re-triggered task overlapped the running one")
	default:
	}
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	d := New()

	var wg sync.WaitGroup
	var count atomic.Int32
	for _, key := range []string{"a.yml", "b.yml", "c.yml"} {
		wg.Add(1)
		d.Trigger(key, 0, func() {
			count.Add(1)
			wg.Done()
		})
	}

	doneCh := make(chan struct{})
	go func() { wg.Wait(); close(doneCh) }()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks for independent keys did not all run")
	}

	if n := count.Load(); n != 3 {
		t.Errorf("ran %d tasks, want 3", n)
	}
}

func TestDebouncer_DisposeAll(t *testing.T) {
	d := New()

	var ran atomic.Int32
	d.Trigger("a.yml", 30*time.Millisecond, func() { ran.Add(1) })
	d.Trigger("b.yml", 30*time.Millisecond, func() { ran.Add(1) })
	d.DisposeAll()

	time.Sleep(100 * time.Millisecond)
	if n := ran.Load(); n != 0 {
		t.Errorf("%d disposed tasks ran", n)
	}
}
