// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history records completed dispatches in a per-study SQLite
// database so past runs and their per-subject outcomes can be queried.
package history
