// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package dispatch turns a resolved pipeline plan into a Runnable: either a
// single external batch-parallel runner fed command lines on stdin, or an
// in-process bounded batch of per-subject shell commands.
package dispatch
