// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/lakegrid/internal/config"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
	"github.com/specialistvlad/lakegrid/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from paths and merges them into a
// single config.Model. Exactly one pipeline block must exist across all
// files; task and connection ids must be unique.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	if len(paths) == 0 {
		return nil, nil, errors.New("no pipeline path given")
	}

	parser := hclparse.NewParser()
	evalCtx := loadEvalContext()
	model := &config.Model{
		Connections: make(map[string]*config.Connection),
		BaseDir:     fsutil.BaseDir(paths[0]),
	}
	var pipelines []*pipelineBlock

	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find pipeline files in %s: %w", path, err)
		}
		logger.Debug("Found HCL files to load.", "path", path, "files", files)

		for _, filePath := range files {
			file, diags := parser.ParseHCLFile(filePath)
			if diags.HasErrors() {
				return nil, nil, fmt.Errorf("failed to parse %s: %w", filePath, diags)
			}

			var fs fileSchema
			if diags := gohcl.DecodeBody(file.Body, evalCtx, &fs); diags.HasErrors() {
				return nil, nil, fmt.Errorf("failed to decode %s: %w", filePath, diags)
			}

			pipelines = append(pipelines, fs.Pipelines...)

			for _, c := range fs.Connections {
				if _, dup := model.Connections[c.ID]; dup {
					return nil, nil, fmt.Errorf("%s: duplicate connection %q", filePath, c.ID)
				}
				conn, err := translateConnection(c)
				if err != nil {
					return nil, nil, fmt.Errorf("%s: %w", filePath, err)
				}
				model.Connections[c.ID] = conn
			}

			for _, t := range fs.Tasks {
				if _, dup := model.TaskByID(t.ID); dup {
					return nil, nil, fmt.Errorf("%s: duplicate task %q", filePath, t.ID)
				}
				task, err := translateTask(t)
				if err != nil {
					return nil, nil, fmt.Errorf("%s: %w", filePath, err)
				}
				model.Tasks = append(model.Tasks, task)
			}
			logger.Debug("Loaded HCL file.", "file", filePath, "tasks", len(fs.Tasks), "connections", len(fs.Connections))
		}
	}

	switch len(pipelines) {
	case 0:
		return nil, nil, errors.New("no pipeline block found")
	case 1:
	default:
		return nil, nil, fmt.Errorf("expected exactly one pipeline block, found %d", len(pipelines))
	}

	pipeline, err := translatePipeline(pipelines[0])
	if err != nil {
		return nil, nil, err
	}
	model.Pipeline = pipeline

	if pipeline.Schedule != nil && pipeline.Schedule.ConnID != "" {
		if _, ok := model.Connections[pipeline.Schedule.ConnID]; !ok {
			return nil, nil, fmt.Errorf("schedule references unknown connection %q", pipeline.Schedule.ConnID)
		}
	}

	logger.Info("Pipeline loaded.", "pipeline", pipeline.Name, "tasks", len(model.Tasks), "connections", len(model.Connections))
	return model, NewConverter(), nil
}
