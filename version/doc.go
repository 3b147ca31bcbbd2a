// Package version reports the build version of fluxkit binaries.
//
// Values are injected at link time and fall back to the VCS stamps Go
// embeds in the binary:
//
//	go build -ldflags "-X github.com/kbukum/fluxkit/version.Version=v0.3.0" ./cmd/fluxdemo
package version
