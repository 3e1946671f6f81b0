// Package twin implements the K1-Lightwave digital twin state engine.
//
// The engine tracks two fields: a monotonic logical tick counter and the
// asset count observed by the most recent LoadAssets scan. A single mutex
// guards the pair, so every State call returns a snapshot that was
// simultaneously true at one instant.
//
// INVARIANTS:
//   - Tick never decreases and never skips: each Tick() advances by exactly 1.
//   - The asset count only changes on an explicit LoadAssets call. The
//     directory is never watched; the count is a point-in-time observation.
//   - LoadAssets never fails. Any scan error (missing directory, permission
//     denied, not a directory) degrades to a count of zero.
//   - The guard is held only for field access, never across filesystem I/O
//     or sleeps.
//
// State lives in process memory only. A restart begins again at tick zero;
// nothing is persisted or restored by this package.
package twin
