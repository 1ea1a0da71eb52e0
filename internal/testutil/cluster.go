// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/specialistvlad/lakegrid/internal/cluster"
)

// FakeCluster is an in-memory cluster.Scheduler. Each job walks through the
// states queued in Script (one per Status call, the last one sticks); jobs
// without a script succeed on the first poll.
type FakeCluster struct {
	mu sync.Mutex

	// Script maps a job name prefix to the states Status reports.
	Script map[string][]cluster.State
	// JobLogs maps a job name prefix to the logs Logs returns.
	JobLogs map[string]string
	// SubmitErr, when set, fails every submission.
	SubmitErr error

	Submitted []*cluster.Job
	polls     map[string]int
}

var _ cluster.Scheduler = (*FakeCluster)(nil)

func NewFakeCluster() *FakeCluster {
	return &FakeCluster{
		Script:  map[string][]cluster.State{},
		JobLogs: map[string]string{},
		polls:   map[string]int{},
	}
}

func (f *FakeCluster) Submit(_ context.Context, namespace string, spec *cluster.JobSpec) (*cluster.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return nil, f.SubmitErr
	}
	name := spec.JobName()
	job := &cluster.Job{Name: name, Namespace: namespace, ID: fmt.Sprintf("fake-%d", len(f.Submitted)+1), Spec: spec}
	f.Submitted = append(f.Submitted, job)
	return job, nil
}

func (f *FakeCluster) find(namespace, name string) *cluster.Job {
	for _, j := range f.Submitted {
		if j.Namespace == namespace && j.Name == name {
			return j
		}
	}
	return nil
}

func byPrefix[V any](m map[string]V, name string) (V, bool) {
	for prefix, v := range m {
		if strings.HasPrefix(name, prefix) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func (f *FakeCluster) Status(_ context.Context, namespace, name string) (cluster.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.find(namespace, name) == nil {
		return cluster.JobStatus{State: cluster.StateUnknown}, fmt.Errorf("%w: %s/%s", cluster.ErrJobNotFound, namespace, name)
	}

	states, _ := byPrefix(f.Script, name)
	if len(states) == 0 {
		return cluster.JobStatus{State: cluster.StateSucceeded}, nil
	}
	key := namespace + "/" + name
	i := f.polls[key]
	if i >= len(states) {
		i = len(states) - 1
	}
	f.polls[key]++

	st := cluster.JobStatus{State: states[i]}
	if st.State == cluster.StateFailed {
		st.ExitCode = 1
		st.Message = "exited with code 1"
	}
	return st, nil
}

func (f *FakeCluster) Logs(_ context.Context, namespace, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.find(namespace, name) == nil {
		return "", fmt.Errorf("%w: %s/%s", cluster.ErrJobNotFound, namespace, name)
	}
	logs, _ := byPrefix(f.JobLogs, name)
	return logs, nil
}

// Polls returns how many times Status was asked about a job.
func (f *FakeCluster) Polls(namespace, name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[namespace+"/"+name]
}
