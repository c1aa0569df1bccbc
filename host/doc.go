// Package host provides the managed runtime that typed native values are
// embedded in.
//
// A Runtime owns an object heap of slots, a class table with method dispatch,
// and a collector. The collector runs mark/sweep full collections, generational
// minor collections driven by write barriers, and sliding compaction. Native
// types plug into the collector through DataType callbacks.
//
// The runtime has a single mutator: Embed binds it to the calling goroutine's
// OS thread, and every entry point that touches the heap must run there.
// Violations are runtime-integrity bugs and terminate the process.
package host
