// Package compiler turns gate-level circuits into pulse schedules.
//
// The Compiler interface is the collaborator the builder calls when it
// flushes buffered gates. InstructionMap is the reference implementation:
// every gate is looked up in the target's calibration table, or expanded
// from a small set of virtual-Z and sx decompositions, and the resulting
// blocks are scheduled per qubit. Cached puts an LRU in front of any
// Compiler.
package compiler
