// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package transform

import (
	"fmt"
	"os"

	"github.com/specialistvlad/lakegrid/internal/objstore"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig.
const (
	EnvConfigPath = "LAKEGRID_CONFIG"
	EnvAccessKey  = "MINIO_ACCESS_KEY"
	EnvSecretKey  = "MINIO_SECRET_KEY"
	EnvEndpoint   = "MINIO_ENDPOINT"
)

// Config is the transformation job configuration file.
type Config struct {
	Storages Storages `yaml:"storages"`
}

type Storages struct {
	BrewPaths   BrewPaths       `yaml:"brew_paths"`
	ObjectStore objstore.Config `yaml:"object_store"`
}

// BrewPaths holds the table URI of every layer.
type BrewPaths struct {
	Bronze string `yaml:"bronze"`
	Silver string `yaml:"silver"`
	Gold   string `yaml:"gold"`
}

// LoadConfig reads the YAML configuration from path, or from $LAKEGRID_CONFIG
// when path is empty, and applies the MINIO_* overrides.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return nil, fmt.Errorf("no config file given and %s is not set", EnvConfigPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Storages.ObjectStore.Endpoint = v
	}
	if v := os.Getenv(EnvAccessKey); v != "" {
		cfg.Storages.ObjectStore.AccessKey = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		cfg.Storages.ObjectStore.SecretKey = v
	}

	if err := cfg.Storages.BrewPaths.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (p BrewPaths) validate() error {
	layers := []struct{ name, uri string }{{"bronze", p.Bronze}, {"silver", p.Silver}, {"gold", p.Gold}}
	for _, l := range layers {
		name, uri := l.name, l.uri
		if uri == "" {
			return fmt.Errorf("storages.brew_paths.%s is required", name)
		}
		if _, err := objstore.ParseURI(uri); err != nil {
			return fmt.Errorf("storages.brew_paths.%s: %w", name, err)
		}
	}
	return nil
}
