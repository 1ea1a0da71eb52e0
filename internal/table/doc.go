// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package table stores layer tables (bronze, silver, gold) as versioned
// parquet datasets on an object store.
//
// Layout under the table location:
//
//	part-<version>-<uuid>.snappy.parquet   data files
//	_log/<20-digit version>.json           commits
//
// A version becomes visible once its commit object exists. Overwrite always
// writes a new version; readers pick the highest committed one. Concurrent
// writers are not coordinated, the last commit written wins.
package table
