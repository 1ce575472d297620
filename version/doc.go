// Package version reports the compgraph build version.
//
// Version, commit, branch and build time can be set via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/compgraph/version.Version=1.2.0" ./cmd/compgraph
//
// Unset values fall back to the VCS stamps the Go toolchain embeds.
package version
