// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package brewery holds the row types of the brewery lakehouse and the pure
// functions that move a row from one layer to the next.
//
//   - bronze: raw Open Brewery DB JSON documents, one or many per object.
//   - silver: validated, trimmed, deduplicated records (SilverBrewery).
//   - gold: business-modelled records (GoldBrewery), one per silver row.
//
// Nothing here touches storage; internal/transform does the I/O.
package brewery
