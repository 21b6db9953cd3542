// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !linux

package report

// probeKernel has no portable implementation off Linux; the report simply
// omits the kernel and memory lines.
func probeKernel() (string, uint64) {
	return "", 0
}
