// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package scheduler decides when pipeline runs start in serve mode.
//
// Triggers emit run requests: on a fixed interval, when the objects under a
// dataset URI change, or on demand. The Scheduler fans them in, takes a slot
// from the run lock so that no more than max_active_runs runs of a pipeline
// overlap, and hands each request to the executor. Requests that arrive while
// every slot is taken are dropped and logged; the next trigger tick retries.
package scheduler
