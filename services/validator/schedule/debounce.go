// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schedule coalesces rapid validation triggers per document.
package schedule

import (
	"sync"
	"time"
)

// Task is a unit of deferred work. It runs on a scheduler goroutine.
type Task func()

// Debouncer coalesces triggers so that, per key, at most one task is
// pending or running at any time.
//
// # Description
//
// Each key owns one delay unit, created lazily on first trigger. While the
// unit's timer is armed, a new trigger replaces the pending task without
// restarting the countdown, so the latest task runs when the original delay
// fires. While a task is executing, one follow-up may be queued; further
// triggers replace the queued task. The queued task runs immediately after
// the current execution completes. Execution is therefore strictly
// serialized per key.
//
// # Thread Safety
//
// Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	units map[string]*unit
}

type unit struct {
	key      string
	timer    *time.Timer
	pending  Task
	running  bool
	queued   Task
	disposed bool
}

// New creates an empty Debouncer.
func New() *Debouncer {
	return &Debouncer{units: make(map[string]*unit)}
}

// Trigger schedules task for key after delay.
//
// Description:
//
//	A zero delay means "run at the next scheduling opportunity": the task
//	still runs asynchronously, never inline. If a task for the key is
//	already armed, only the task reference is replaced; the countdown is
//	not restarted. If a task for the key is currently running, the new
//	task is queued to run right after it; a previously queued task is
//	dropped in its favor.
//
// Inputs:
//
//	key - The coalescing key (one per document).
//	delay - Debounce window. Zero for immediate asynchronous execution.
//	task - The work to run. Must not be nil.
func (d *Debouncer) Trigger(key string, delay time.Duration, task Task) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := d.units[key]
	if u == nil {
		u = &unit{key: key}
		d.units[key] = u
	}
	// A disposed-but-still-running unit is reused so the new task
	// serializes behind the old execution instead of racing it.
	u.disposed = false

	switch {
	case u.running:
		u.queued = task
	case u.pending != nil:
		u.pending = task
	default:
		u.pending = task
		u.timer = time.AfterFunc(delay, func() { d.fire(u) })
	}
}

// Dispose cancels any pending timer for key and drops queued work.
//
// Description:
//
//	Called when a document closes or configuration reloads. A task that
//	is already executing is not interrupted, but its queued follow-up (if
//	any) will not run.
func (d *Debouncer) Dispose(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposeLocked(key)
}

// DisposeAll cancels every pending unit. Used on configuration reload.
func (d *Debouncer) DisposeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.units {
		d.disposeLocked(key)
	}
}

// Pending reports whether key currently has armed, running, or queued work.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.units[key]
	return u != nil && (u.pending != nil || u.running || u.queued != nil)
}

func (d *Debouncer) disposeLocked(key string) {
	u := d.units[key]
	if u == nil {
		return
	}
	if u.timer != nil {
		u.timer.Stop()
	}
	u.disposed = true
	u.pending = nil
	u.queued = nil
	if !u.running {
		delete(d.units, key)
	}
}

// fire runs the pending task and then any task queued during execution.
func (d *Debouncer) fire(u *unit) {
	d.mu.Lock()
	if u.disposed || u.pending == nil {
		d.mu.Unlock()
		return
	}
	task := u.pending
	u.pending = nil
	u.running = true
	d.mu.Unlock()

	for task != nil {
		task()

		d.mu.Lock()
		task = u.queued
		u.queued = nil
		if task == nil {
			u.running = false
			if u.disposed && d.units[u.key] == u {
				delete(d.units, u.key)
			}
		}
		d.mu.Unlock()
	}
}
