// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package hcl implements config.Loader and config.Converter for pipeline
// definitions written in HCL.
//
// A definition is one or more .hcl files containing exactly one `pipeline`
// block plus any number of `connection` and `task` blocks. Task arguments are
// kept as unevaluated expressions; they are evaluated right before the task
// runs, against the outputs (xcom) of the tasks that already finished.
package hcl
