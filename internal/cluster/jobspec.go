// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cluster

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// KindTransformationJob is the only document kind LoadJobSpec accepts.
const KindTransformationJob = "TransformationJob"

// JobSpec is the declarative description of a transformation job.
type JobSpec struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   ObjectMeta  `yaml:"metadata"`
	Spec       JobTemplate `yaml:"spec"`
}

// ObjectMeta names a job. Exactly one of Name or GenerateName is expected;
// GenerateName gets a random suffix on every submission.
type ObjectMeta struct {
	Name         string            `yaml:"name"`
	GenerateName string            `yaml:"generateName"`
	Labels       map[string]string `yaml:"labels"`
}

// JobTemplate is what the scheduler runs.
type JobTemplate struct {
	Image   string            `yaml:"image"`
	Command []string          `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	// MainApplicationFile is used as the command when Command is empty.
	MainApplicationFile string `yaml:"mainApplicationFile"`
	WorkingDir          string `yaml:"workingDir"`
}

// LoadJobSpec reads and validates a job document. Environment references
// (${VAR}) in env values are expanded.
func LoadJobSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job spec: %w", err)
	}
	spec, err := ParseJobSpec(data)
	if err != nil {
		return nil, fmt.Errorf("job spec %s: %w", path, err)
	}
	return spec, nil
}

// ParseJobSpec decodes and validates a job document.
func ParseJobSpec(data []byte) (*JobSpec, error) {
	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	for k, v := range spec.Spec.Env {
		spec.Spec.Env[k] = os.ExpandEnv(v)
	}
	return &spec, nil
}

// Validate checks the fields every scheduler relies on.
func (s *JobSpec) Validate() error {
	if s.Kind != KindTransformationJob {
		return fmt.Errorf("unsupported kind %q, expected %q", s.Kind, KindTransformationJob)
	}
	if s.Metadata.Name == "" && s.Metadata.GenerateName == "" {
		return fmt.Errorf("metadata needs a name or a generateName")
	}
	if s.Spec.Image == "" {
		return fmt.Errorf("spec.image is required")
	}
	return nil
}

// JobName returns the name the job is submitted under.
func (s *JobSpec) JobName() string {
	if s.Metadata.Name != "" {
		return s.Metadata.Name
	}
	return s.Metadata.GenerateName + uuid.NewString()[:8]
}

// Entrypoint is the command part of the job's command line, without args.
func (s *JobSpec) Entrypoint() []string {
	if len(s.Spec.Command) == 0 && s.Spec.MainApplicationFile != "" {
		return []string{s.Spec.MainApplicationFile}
	}
	return s.Spec.Command
}

// Argv is the full command line of the job.
func (s *JobSpec) Argv() []string {
	cmd := s.Entrypoint()
	argv := make([]string, 0, len(cmd)+len(s.Spec.Args))
	argv = append(argv, cmd...)
	return append(argv, s.Spec.Args...)
}

// Environ renders the env map as sorted KEY=VALUE pairs.
func (s *JobSpec) Environ() []string {
	keys := make([]string, 0, len(s.Spec.Env))
	for k := range s.Spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+s.Spec.Env[k])
	}
	return env
}
