// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package notebooks detects whether the program is running inside a Jupyter notebook, in which case
// the command-line progress bar can't move the cursor and plots can be displayed inline.
package notebooks

import "os"

// Environment variables set by the supported Jupyter kernels.
const (
	bashKernelEnv = "NOTEBOOK_BASH_KERNEL_CAPABILITIES"
	goNBKernelEnv = "GONB_PIPE"
)

// IsNotebook returns whether running inside a bash_kernel or a GoNB notebook.
func IsNotebook() bool {
	return IsBashKernel() || IsGoNB()
}

// IsBashKernel returns whether running inside a bash_kernel notebook.
func IsBashKernel() bool {
	_, found := os.LookupEnv(bashKernelEnv)
	return found
}

// IsGoNB returns whether running as a GoNB cell. Inline plots are only supported in GoNB.
func IsGoNB() bool {
	_, found := os.LookupEnv(goNBKernelEnv)
	return found
}
