// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	// Serve runs the trigger loop instead of a single run.
	Serve bool
	// History prints the last N runs and exits when positive.
	History int

	// StateDB is the sqlite file with the run history; empty keeps it in memory.
	StateDB string
	// EtcdEndpoints switches xcom and the run lock to etcd when set.
	EtcdEndpoints []string
	// NotifyURL is a socket.io endpoint receiving task notifications.
	NotifyURL string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.History < 0 {
		return nil, fmt.Errorf("history must not be negative, got %d", cfg.History)
	}
	if cfg.Serve && cfg.History > 0 {
		return nil, errors.New("serve and history are mutually exclusive")
	}
	return &cfg, nil
}
