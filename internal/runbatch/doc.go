// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch executes OS commands, singly or as a bounded parallel
// batch, capturing output and relaying signals and context cancellation to
// the child processes.
package runbatch
