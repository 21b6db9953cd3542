// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color colorizes strings with ANSI escape codes.
// The NO_COLOR and FORCE_COLOR environment variables determine whether color
// output is enabled; otherwise stdout must be a terminal, detected with the
// golang.org/x/term package.
package color
