// Package version reports the version of the running binary.
//
// Release builds set the version with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/ranchkit/version.Version=1.2.0" ./cmd/ranchctl
//
// Commit and build time default to the VCS stamp recorded by the Go
// toolchain.
package version
