// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package config defines the format-agnostic pipeline model, along with the
// core interfaces (Loader, Converter) for loading and interpreting pipeline
// definitions from various sources.
//
// The `config.Model` is the single source of truth for the `dag` and
// `executor` packages. Concrete implementations of the interfaces, such as
// for HCL, are provided in separate packages.
package config
