// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a terminal user interface showing live per-subject
// dispatch progress, built on bubbletea.
package tui
