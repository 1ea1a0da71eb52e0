// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package objstore is the object storage layer the pipeline talks to: bronze
// key listing, layer tables and dataset triggers all go through Store.
package objstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Store abstracts the S3 operations the pipeline needs.
type Store interface {
	EnsureBucket(ctx context.Context, bucket string) error
	// List returns every object under prefix, recursively, sorted by key.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Config selects and configures a Store. With LocalRoot set the store is a
// directory tree on disk; otherwise it is an S3 endpoint.
type Config struct {
	Endpoint  string `lg:"endpoint,optional" yaml:"endpoint"`
	AccessKey string `lg:"access_key,optional" yaml:"access_key"`
	SecretKey string `lg:"secret_key,optional" yaml:"secret_key"`
	Region    string `lg:"region,optional" yaml:"region"`
	UseSSL    bool   `lg:"use_ssl,optional" yaml:"use_ssl"`
	LocalRoot string `lg:"local_root,optional" yaml:"local_root"`
}

// Open builds the Store described by cfg.
func Open(cfg Config) (Store, error) {
	if cfg.LocalRoot != "" {
		return NewLocalStore(cfg.LocalRoot)
	}
	return NewS3Client(cfg)
}

// Location is a bucket plus a key or key prefix.
type Location struct {
	Bucket string
	Key    string
}

// String renders the location as an s3:// URI.
func (l Location) String() string {
	if l.Key == "" {
		return "s3://" + l.Bucket
	}
	return "s3://" + l.Bucket + "/" + l.Key
}

// Join appends path elements to the key.
func (l Location) Join(elem ...string) Location {
	parts := []string{strings.TrimSuffix(l.Key, "/")}
	for _, e := range elem {
		parts = append(parts, strings.Trim(e, "/"))
	}
	return Location{Bucket: l.Bucket, Key: strings.TrimPrefix(strings.Join(parts, "/"), "/")}
}

// Prefix returns the key with a trailing slash, suitable for listing the
// contents of a "directory".
func (l Location) Prefix() string {
	if l.Key == "" {
		return ""
	}
	return strings.TrimSuffix(l.Key, "/") + "/"
}

// ParseURI parses s3://, s3a:// and s3n:// URIs into a Location.
func ParseURI(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("invalid storage uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "s3", "s3a", "s3n":
	default:
		return Location{}, fmt.Errorf("invalid storage uri %q: unsupported scheme %q", uri, u.Scheme)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("invalid storage uri %q: missing bucket", uri)
	}
	return Location{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
}
