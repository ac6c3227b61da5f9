// Package program loads declarative pulse and circuit programs and lowers
// them to wire jobs.
//
// # Program Format
//
// Programs are YAML files with the following structure:
//
//	name: program_name
//	description: "What this program does"
//	kind: pulse                # or circuit
//	target: fake3q             # target name inside the CUE package
//	targets: ../targets        # CUE package directory, relative to the file
//	run:
//	  shots: 1024
//	  method: alap             # gate scheduling method
//	lo_configs:
//	  - d0: 5.05e9
//	schedules:
//	  - name: main
//	    align: left
//	    body:
//	      - gate: x
//	        qubits: [0]
//	      - op: barrier
//	        channels: [d0, m0]
//	      - measure: [0]
//	circuits:
//	  - name: bell
//	    qregs: [{name: q, size: 2}]
//	    cregs: [{name: c, size: 2}]
//	    instructions:
//	      - {name: h, qubits: ["q[0]"]}
//	      - {name: cx, qubits: ["q[0]", "q[1]"]}
//
// # Steps
//
// Every schedule body step is exactly one of:
//
//   - op: a raw instruction (play, delay, acquire, frame changes,
//     snapshot, barrier) in the same form as target calibrations
//   - gate: a gate on physical qubits, compiled through the target
//   - circuit: a circuit declared under circuits, called by name
//   - measure / measure_all: measurement of whole acquire groups
//   - call: another schedule of the program, inlined as one block
//   - block: a nested scope with its own alignment, padding or frame
//     offsets
//
// Schedules marked subroutine are only reachable through call and are not
// lowered as experiments of their own.
//
// Circuit programs lower their circuits directly and need no target.
//
// # Deterministic Output
//
// Lowering takes an id generator so tests can pin the job id; with a fixed
// id the same program yields byte-identical canonical JSON, which the
// golden tests compare against testdata/golden.
package program
