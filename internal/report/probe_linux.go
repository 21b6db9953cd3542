// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build linux

package report

import "golang.org/x/sys/unix"

// probeKernel reads the kernel release and physical memory size.
func probeKernel() (string, uint64) {
	var kernel string

	var uname unix.Utsname
	if err := unix.Uname(&uname); err == nil {
		kernel = unix.ByteSliceToString(uname.Release[:])
	}

	var mem uint64

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		mem = uint64(si.Totalram) * uint64(si.Unit)
	}

	return kernel, mem
}
