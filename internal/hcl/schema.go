// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import "github.com/hashicorp/hcl/v2"

// fileSchema is the top-level layout of a single pipeline file.
type fileSchema struct {
	Pipelines   []*pipelineBlock   `hcl:"pipeline,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
	Tasks       []*taskBlock       `hcl:"task,block"`
}

type pipelineBlock struct {
	Name          string            `hcl:"name,label"`
	Description   *string           `hcl:"description,optional"`
	Tags          []string          `hcl:"tags,optional"`
	MaxActiveRuns *int              `hcl:"max_active_runs,optional"`
	DefaultArgs   *defaultArgsBlock `hcl:"default_args,block"`
	Schedule      *scheduleBlock    `hcl:"schedule,block"`
}

type defaultArgsBlock struct {
	Owner           *string `hcl:"owner,optional"`
	Retries         *int    `hcl:"retries,optional"`
	RetryDelay      *string `hcl:"retry_delay,optional"`
	Timeout         *string `hcl:"timeout,optional"`
	NotifyOnFailure *bool   `hcl:"notify_on_failure,optional"`
	NotifyOnRetry   *bool   `hcl:"notify_on_retry,optional"`
}

type scheduleBlock struct {
	Interval     *string `hcl:"interval,optional"`
	Dataset      *string `hcl:"dataset,optional"`
	PollInterval *string `hcl:"poll_interval,optional"`
	ConnID       *string `hcl:"conn_id,optional"`
}

type connectionBlock struct {
	Kind string   `hcl:"kind,label"`
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

type taskBlock struct {
	Kind        string          `hcl:"kind,label"`
	ID          string          `hcl:"id,label"`
	DependsOn   []string        `hcl:"depends_on,optional"`
	TriggerRule *string         `hcl:"trigger_rule,optional"`
	Retries     *int            `hcl:"retries,optional"`
	RetryDelay  *string         `hcl:"retry_delay,optional"`
	Timeout     *string         `hcl:"timeout,optional"`
	Arguments   *argumentsBlock `hcl:"arguments,block"`
}

type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
