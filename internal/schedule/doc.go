// Package schedule provides the timed program representation: a per-channel
// occupancy tracker and a composite Schedule tree of instructions and nested
// blocks positioned at relative offsets.
//
// A Schedule is mutated only by its owner (normally the builder) through
// Append and Insert; every mutation is conflict checked and atomic. Once a
// schedule is handed to lowering it is treated as read-only.
package schedule
