// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package xcom stores the values tasks hand to each other within a run.
//
// A value is addressed by (run, task, key). Operators return a single value
// that the executor pushes under ReturnValueKey; downstream tasks read it in
// expressions as xcom.<task_id>.<attr>.
//
// Two implementations exist. MemoryStore is per-process and backs single
// node runs and tests. EtcdStore keeps the values in etcd so that a run can
// be inspected, or continued, from another process.
package xcom
