// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package app contains the core application logic. It wires the pipeline
// definition, the operator registry and the run infrastructure (history,
// xcom, run lock, notifications) into an App, and exposes its three modes:
// a single run, the trigger loop, and the run history listing. It is
// decoupled from any specific entrypoint like a CLI.
package app
