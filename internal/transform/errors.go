// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package transform

import "fmt"

// StageKind tells at which step a stage failed.
type StageKind string

const (
	KindRead      StageKind = "read"
	KindCreate    StageKind = "create"
	KindTransform StageKind = "transform"
	KindWrite     StageKind = "write"
)

// StageError is returned by Runner stages.
type StageError struct {
	Stage string
	Kind  StageKind
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Stage, e.Kind, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
