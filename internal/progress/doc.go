// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress defines the event types emitted by dispatched pipeline
// commands and the reporter/listener plumbing that carries them to the TUI.
package progress
