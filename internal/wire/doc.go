// Package wire defines the job documents handed to a hardware backend:
// pulse jobs (flat timed instruction lists plus a deduplicated pulse
// library) and circuit jobs (flat-indexed gate lists with classical
// control encoded as bfunc instructions).
//
// Field names and shapes are the backend's; every struct marshals with
// encoding/json. Frequencies are in GHz.
package wire
