package wire

import (
	"encoding/json"
	"fmt"
)

// CircuitJob is a lowered batch of circuits.
type CircuitJob struct {
	QobjID        string              `json:"qobj_id"`
	Type          string              `json:"type"`
	SchemaVersion string              `json:"schema_version"`
	Header        Header              `json:"header"`
	Config        CircuitConfig       `json:"config"`
	Experiments   []CircuitExperiment `json:"experiments"`
}

// CircuitConfig is the job-wide configuration.
type CircuitConfig struct {
	Shots       int  `json:"shots"`
	Memory      bool `json:"memory"`
	NQubits     int  `json:"n_qubits"`
	MemorySlots int  `json:"memory_slots"`
}

// BitLabel is a (register, index) pair, marshaled as ["q", 0].
type BitLabel struct {
	Register string
	Index    int
}

// MarshalJSON implements json.Marshaler.
func (b BitLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{b.Register, b.Index})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BitLabel) UnmarshalJSON(data []byte) error {
	return unmarshalPair(data, &b.Register, &b.Index)
}

// RegSize is a (register, size) pair, marshaled as ["q", 2].
type RegSize struct {
	Register string
	Size     int
}

// MarshalJSON implements json.Marshaler.
func (r RegSize) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Register, r.Size})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RegSize) UnmarshalJSON(data []byte) error {
	return unmarshalPair(data, &r.Register, &r.Size)
}

func unmarshalPair(data []byte, name *string, n *int) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("expected [name, int], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], name); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], n)
}

// CircuitExperimentHeader describes the registers of one circuit.
type CircuitExperimentHeader struct {
	QubitLabels []BitLabel `json:"qubit_labels"`
	NQubits     int        `json:"n_qubits"`
	QregSizes   []RegSize  `json:"qreg_sizes"`
	ClbitLabels []BitLabel `json:"clbit_labels"`
	MemorySlots int        `json:"memory_slots"`
	CregSizes   []RegSize  `json:"creg_sizes"`
	Name        string     `json:"name"`
}

// CircuitExperimentConfig repeats the sizes of one circuit.
type CircuitExperimentConfig struct {
	NQubits     int `json:"n_qubits"`
	MemorySlots int `json:"memory_slots"`
}

// CircuitExperiment is one lowered circuit.
type CircuitExperiment struct {
	Header       CircuitExperimentHeader `json:"header"`
	Config       CircuitExperimentConfig `json:"config"`
	Instructions []CircuitInstruction    `json:"instructions"`
}

// RegisterField is the register operand of a circuit instruction. bfunc
// writes a single register; measure records into one register per qubit.
type RegisterField struct {
	Single *int
	List   []int
}

// MarshalJSON implements json.Marshaler.
func (r RegisterField) MarshalJSON() ([]byte, error) {
	if r.Single != nil {
		return json.Marshal(*r.Single)
	}
	return json.Marshal(r.List)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RegisterField) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		r.Single, r.List = &n, nil
		return nil
	}
	r.Single = nil
	return json.Unmarshal(data, &r.List)
}

// CircuitInstruction is one flat-indexed gate, measurement or bfunc.
type CircuitInstruction struct {
	Name        string         `json:"name"`
	Qubits      []int          `json:"qubits,omitempty"`
	Memory      []int          `json:"memory,omitempty"`
	Register    *RegisterField `json:"register,omitempty"`
	Params      []any          `json:"params,omitempty"`
	Conditional *int           `json:"conditional,omitempty"`
	Label       string         `json:"label,omitempty"`
	Type        string         `json:"type,omitempty"`
	Mask        string         `json:"mask,omitempty"`
	Relation    string         `json:"relation,omitempty"`
	Val         string         `json:"val,omitempty"`
}
