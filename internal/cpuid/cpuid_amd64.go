// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build amd64

package cpuid

// Implemented in cpuid_amd64.s
func native(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)
