// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides an io.Reader wrapper that captures all output
// while tracking the last complete line, so a long-running runner's most
// recent console line can be shown as live progress.
package teereader
