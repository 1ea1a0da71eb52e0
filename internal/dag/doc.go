// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package dag turns a config.Model into a validated directed acyclic graph
// of tasks. Edges come from explicit `depends_on` lists and from implicit
// `xcom.<task>` references inside task arguments.
//
// The graph only describes ordering; running it is the executor's job.
package dag
