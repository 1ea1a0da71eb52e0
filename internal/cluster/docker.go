// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cluster

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
)

const (
	LabelNamespace = "lakegrid.namespace"
	LabelJob       = "lakegrid.job"
)

// DockerConfig configures a DockerScheduler. Empty fields fall back to the
// DOCKER_* environment variables.
type DockerConfig struct {
	Host       string `lg:"host,optional"`
	APIVersion string `lg:"api_version,optional"`
	Network    string `lg:"network,optional"`
	// Pull fetches the image before every submission.
	Pull bool `lg:"pull,optional"`
}

// DockerScheduler runs each job as one container named <namespace>-<name>.
type DockerScheduler struct {
	cli *client.Client
	cfg DockerConfig
}

var _ Scheduler = (*DockerScheduler)(nil)

// NewDockerScheduler connects to the Docker daemon.
func NewDockerScheduler(cfg DockerConfig) (*DockerScheduler, error) {
	opts := []client.Opt{client.FromEnv}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerScheduler{cli: cli, cfg: cfg}, nil
}

// Close releases the daemon connection.
func (d *DockerScheduler) Close() error {
	return d.cli.Close()
}

func containerName(namespace, name string) string {
	return namespace + "-" + name
}

// Submit creates and starts the job container. A finished container left
// over from an earlier submission under the same name is replaced; a running
// one is an error.
func (d *DockerScheduler) Submit(ctx context.Context, namespace string, spec *JobSpec) (*Job, error) {
	logger := ctxlog.FromContext(ctx)
	name := spec.JobName()
	cname := containerName(namespace, name)

	if err := d.replaceFinished(ctx, cname); err != nil {
		return nil, err
	}

	if d.cfg.Pull {
		rc, err := d.cli.ImagePull(ctx, spec.Spec.Image, types.ImagePullOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to pull image %s: %w", spec.Spec.Image, err)
		}
		_, _ = io.Copy(io.Discard, rc)
		rc.Close()
	}

	labels := map[string]string{}
	for k, v := range spec.Metadata.Labels {
		labels[k] = v
	}
	labels[LabelNamespace] = namespace
	labels[LabelJob] = name

	cfg := &container.Config{
		Image:      spec.Spec.Image,
		Cmd:        spec.Spec.Args,
		Env:        spec.Environ(),
		Labels:     labels,
		WorkingDir: spec.Spec.WorkingDir,
	}
	if cmd := spec.Entrypoint(); len(cmd) > 0 {
		cfg.Entrypoint = cmd
	}
	hostCfg := &container.HostConfig{}
	if d.cfg.Network != "" {
		hostCfg.NetworkMode = container.NetworkMode(d.cfg.Network)
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, cname)
	if err != nil {
		return nil, fmt.Errorf("failed to create container %s: %w", cname, err)
	}
	if err := d.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container %s: %w", cname, err)
	}
	logger.Info("Job submitted.", "job", name, "namespace", namespace, "container", resp.ID, "command", spec.Argv())

	return &Job{Name: name, Namespace: namespace, ID: resp.ID, Spec: spec}, nil
}

func (d *DockerScheduler) replaceFinished(ctx context.Context, cname string) error {
	info, err := d.cli.ContainerInspect(ctx, cname)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to inspect container %s: %w", cname, err)
	}
	if info.State != nil && info.State.Running {
		return fmt.Errorf("job container %s is still running", cname)
	}
	if err := d.cli.ContainerRemove(ctx, info.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove old container %s: %w", cname, err)
	}
	return nil
}

// Status maps the container state onto a job state.
func (d *DockerScheduler) Status(ctx context.Context, namespace, name string) (JobStatus, error) {
	cname := containerName(namespace, name)
	info, err := d.cli.ContainerInspect(ctx, cname)
	if err != nil {
		if client.IsErrNotFound(err) {
			return JobStatus{State: StateUnknown}, fmt.Errorf("%w: %s/%s", ErrJobNotFound, namespace, name)
		}
		return JobStatus{State: StateUnknown}, fmt.Errorf("failed to inspect container %s: %w", cname, err)
	}
	if info.State == nil {
		return JobStatus{State: StateUnknown}, nil
	}
	return containerStatus(info.State.Status, info.State.ExitCode, info.State.Error), nil
}

func containerStatus(status string, exitCode int, msg string) JobStatus {
	st := JobStatus{ExitCode: exitCode, Message: msg}
	switch status {
	case "created":
		st.State = StateSubmitted
	case "running", "restarting", "paused":
		st.State = StateRunning
	case "exited":
		if exitCode == 0 {
			st.State = StateSucceeded
		} else {
			st.State = StateFailed
			if st.Message == "" {
				st.Message = fmt.Sprintf("exited with code %d", exitCode)
			}
		}
	case "dead":
		st.State = StateFailed
	default:
		st.State = StateUnknown
	}
	return st
}

// Logs returns the combined stdout and stderr of the job container.
func (d *DockerScheduler) Logs(ctx context.Context, namespace, name string) (string, error) {
	cname := containerName(namespace, name)
	rc, err := d.cli.ContainerLogs(ctx, cname, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", fmt.Errorf("%w: %s/%s", ErrJobNotFound, namespace, name)
		}
		return "", fmt.Errorf("failed to read logs of %s: %w", cname, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return "", fmt.Errorf("failed to demultiplex logs of %s: %w", cname, err)
	}
	return buf.String(), nil
}
