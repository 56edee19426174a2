//go:build !amd64 && !arm64

package executor

func spinPause() {}
