// Package values provides typed views of built-in host values.
//
// Each view wraps a host.Value after checking its kind, through FromValue
// (no conversion) or TryConvert (the host's implicit conversion rules).
// Methods must be called on the runtime thread.
package values
