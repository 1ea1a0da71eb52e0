// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package transform implements the two batch programs submitted by the
// pipeline: bronze to silver and silver to gold.
//
// Each stage reads the previous layer, ensures the destination table exists,
// applies its fixed transformation, stamps a processing timestamp and
// overwrites the destination. Every I/O boundary is logged with a
// "[SUCCESS] |" or "[ERROR] |" line, and a read failure returns before
// anything is written.
package transform
