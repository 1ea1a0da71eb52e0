// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package registry provides the central "glue" for the operator system.
//
// The Registry maps the task kinds used in pipeline files (e.g. "s3_list")
// to the compiled Go operators that implement them. Modules add their
// operators through Module.Register; the dag builder rejects unknown kinds
// and the executor looks operators up by kind when a task runs.
package registry
