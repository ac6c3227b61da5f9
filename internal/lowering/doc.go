// Package lowering converts finished programs into wire jobs.
//
// LowerCircuits flattens gate-level circuits: registers become flat bit
// indices and classical conditions become bfunc bit tests writing virtual
// condition slots. LowerSchedules flattens pulse schedules: delays vanish
// into absolute times, envelopes are deduplicated into a content-addressed
// pulse library, simultaneous acquires are bundled and checked against the
// target's measurement map, and LO overrides are resolved into per-job or
// per-experiment frequency settings.
//
// Lowering is all-or-nothing: on error no job is returned.
package lowering
