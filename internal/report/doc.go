// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report appends a timing and hardware summary for each dispatch to
// the study log file.
package report
