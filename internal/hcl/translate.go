// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/lakegrid/internal/config"
)

// translatePipeline converts the HCL pipeline block into the agnostic model,
// filling in the defaults for anything left out.
func translatePipeline(p *pipelineBlock) (*config.Pipeline, error) {
	out := &config.Pipeline{
		Name:          p.Name,
		Tags:          p.Tags,
		MaxActiveRuns: config.DefaultMaxActiveRuns,
		Defaults: config.DefaultArgs{
			Retries:    config.DefaultRetries,
			RetryDelay: config.DefaultRetryDelay,
		},
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.MaxActiveRuns != nil {
		if *p.MaxActiveRuns < 1 {
			return nil, fmt.Errorf("pipeline %q: max_active_runs must be at least 1", p.Name)
		}
		out.MaxActiveRuns = *p.MaxActiveRuns
	}

	if d := p.DefaultArgs; d != nil {
		if d.Owner != nil {
			out.Defaults.Owner = *d.Owner
		}
		if d.Retries != nil {
			if *d.Retries < 0 {
				return nil, fmt.Errorf("pipeline %q: retries must not be negative", p.Name)
			}
			out.Defaults.Retries = *d.Retries
		}
		if d.RetryDelay != nil {
			delay, err := ParseDuration(*d.RetryDelay)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: retry_delay: %w", p.Name, err)
			}
			out.Defaults.RetryDelay = delay
		}
		if d.Timeout != nil {
			timeout, err := ParseDuration(*d.Timeout)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: timeout: %w", p.Name, err)
			}
			out.Defaults.Timeout = timeout
		}
		if d.NotifyOnFailure != nil {
			out.Defaults.NotifyOnFailure = *d.NotifyOnFailure
		}
		if d.NotifyOnRetry != nil {
			out.Defaults.NotifyOnRetry = *d.NotifyOnRetry
		}
	}

	if s := p.Schedule; s != nil {
		sched := &config.Schedule{PollInterval: config.DefaultPollInterval}
		if s.Interval != nil {
			interval, err := ParseDuration(*s.Interval)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: schedule interval: %w", p.Name, err)
			}
			sched.Interval = interval
		}
		if s.PollInterval != nil {
			poll, err := ParseDuration(*s.PollInterval)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: schedule poll_interval: %w", p.Name, err)
			}
			sched.PollInterval = poll
		}
		if s.Dataset != nil {
			sched.Dataset = *s.Dataset
		}
		if s.ConnID != nil {
			sched.ConnID = *s.ConnID
		}
		if sched.Dataset != "" && sched.ConnID == "" {
			return nil, fmt.Errorf("pipeline %q: schedule with a dataset needs a conn_id", p.Name)
		}
		out.Schedule = sched
	}

	return out, nil
}

// translateTask converts the HCL task block into the agnostic model.
func translateTask(t *taskBlock) (*config.Task, error) {
	out := &config.Task{
		Kind:      t.Kind,
		ID:        t.ID,
		DependsOn: t.DependsOn,
		Retries:   t.Retries,
	}

	rule := ""
	if t.TriggerRule != nil {
		rule = *t.TriggerRule
	}
	tr, err := config.ParseTriggerRule(rule)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", t.ID, err)
	}
	out.TriggerRule = tr

	if t.Retries != nil && *t.Retries < 0 {
		return nil, fmt.Errorf("task %q: retries must not be negative", t.ID)
	}
	if t.RetryDelay != nil {
		delay, err := ParseDuration(*t.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("task %q: retry_delay: %w", t.ID, err)
		}
		out.RetryDelay = &delay
	}
	if t.Timeout != nil {
		timeout, err := ParseDuration(*t.Timeout)
		if err != nil {
			return nil, fmt.Errorf("task %q: timeout: %w", t.ID, err)
		}
		out.Timeout = timeout
	}

	if t.Arguments != nil {
		args, err := bodyAttributes(t.Arguments.Body)
		if err != nil {
			return nil, fmt.Errorf("task %q: arguments: %w", t.ID, err)
		}
		out.Arguments = args
	}
	return out, nil
}

// translateConnection converts the HCL connection block into the agnostic model.
func translateConnection(c *connectionBlock) (*config.Connection, error) {
	attrs, err := bodyAttributes(c.Body)
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", c.ID, err)
	}
	return &config.Connection{Kind: c.Kind, ID: c.ID, Attributes: attrs}, nil
}

func bodyAttributes(body hcl.Body) (map[string]hcl.Expression, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}

// ParseDuration accepts everything time.ParseDuration does plus a whole
// number of days ("1d", "7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d, nil
}
