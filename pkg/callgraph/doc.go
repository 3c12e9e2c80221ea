// Package callgraph builds the static call graph from GCC -fdump-ipa-cgraph
// output.
//
// # Input Format
//
// A dump lists one block per symbol:
//
//	sensor_read/3 (sensor_read)
//	  Type: function definition analyzed
//	  Visibility: externally_visible public
//	  Called by: main/0
//	  Calls: i2c_xfer/7 crc8/5
//
// The definition line gives the dump identifier ("sensor_read/3") and the
// actual symbol name. The Calls line lists callee identifiers.
//
// # Two Phases
//
// [Scan] reads one input and records every definition and every attached
// Calls line. It is pure, so scans can be cached per file. [Builder] merges
// scans from all inputs and [Builder.Build] resolves identifiers to names,
// normalizes them with [symbol.Normalize], drops ignored edges and
// deduplicates callees. References that never resolve are reported in
// [Result.Unresolved].
//
// # Overlays
//
// An [Overlay] adds hypothesized edges (callbacks, function pointers) for one
// analysis scenario. [Overlay.Callees] returns base callees first, then
// overlay callees. The base graph is never modified.
package callgraph
