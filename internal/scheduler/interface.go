// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scheduler

import (
	"context"

	"github.com/specialistvlad/lakegrid/internal/executor"
)

// Trigger emits run requests until ctx is done.
type Trigger interface {
	// Name identifies the trigger in logs.
	Name() string
	// Start blocks, sending requests to out, and returns when ctx is done.
	Start(ctx context.Context, out chan<- executor.RunRequest) error
}

// Runner starts one pipeline run. *executor.Executor implements it.
type Runner interface {
	Run(ctx context.Context, req executor.RunRequest) (*executor.RunResult, error)
}
