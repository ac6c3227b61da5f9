// Package ir provides the value types shared by every pulsekit layer:
// channels, instructions, waveforms and the typed errors raised while
// building and lowering programs.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Channel and Instruction are immutable values, compared by content
//   - Durations and start times are int64 sample counts, never seconds
//   - Content hashes use domain-separated SHA-256 over canonical encodings
package ir
