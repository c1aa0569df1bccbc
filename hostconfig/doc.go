// Package hostconfig describes the host runtime this module is built against.
//
// It has two halves. The build-time half probes an installed host runtime for
// its configuration and records the API version in a generated source file
// (see cmd/hostprobe), exposing version comparisons that other packages use to
// enable or disable version-gated capabilities such as compaction. The runtime
// half is the YAML configuration consumed by host.Embed.
package hostconfig

//go:generate go run ../cmd/hostprobe -out zz_generated_version.go
