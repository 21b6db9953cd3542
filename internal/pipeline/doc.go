// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pipeline turns a resolved study configuration and a subject list
// into a dispatch plan: one templated command line per subject, plus the
// runner invocation that will execute them. The study manifest (YAML or HCL)
// is decoded here too.
package pipeline
