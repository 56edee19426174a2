//go:build amd64 || arm64

package executor

// spinPause issues the CPU spin-wait hint (PAUSE on amd64, YIELD on arm64).
func spinPause()
