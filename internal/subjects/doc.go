// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package subjects resolves the set of subject identifiers for a study run:
// it reads a newline-delimited subject list file, or derives one from the
// non-file entries of the raw-data directory and writes it back.
package subjects
