// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package cluster is the client side of the job scheduler that runs the
// batch transformation programs.
//
// A job is described by a YAML document (see JobSpec) and submitted to a
// Scheduler under a namespace. The orchestrator only submits and polls: the
// work itself happens in whatever the Scheduler starts, a container in the
// case of DockerScheduler.
package cluster
