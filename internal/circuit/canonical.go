package circuit

// CanonicalMap renders c as plain values for ir.ContentHash. Symbolic
// parameters are evaluated with c.Bindings so equal programs hash equally.
func (c *Circuit) CanonicalMap() (map[string]any, error) {
	regs := func(rs []Register) []any {
		out := make([]any, len(rs))
		for i, r := range rs {
			out[i] = []any{r.Name, r.Size}
		}
		return out
	}

	insts := make([]any, len(c.Instructions))
	for i, in := range c.Instructions {
		m := map[string]any{"name": in.Name}
		qubits := make([]any, len(in.Qubits))
		for j, q := range in.Qubits {
			idx, err := c.QubitIndex(q)
			if err != nil {
				return nil, err
			}
			qubits[j] = idx
		}
		m["qubits"] = qubits
		clbits := make([]any, len(in.Clbits))
		for j, b := range in.Clbits {
			idx, err := c.ClbitIndex(b)
			if err != nil {
				return nil, err
			}
			clbits[j] = idx
		}
		m["clbits"] = clbits
		params := make([]any, len(in.Params))
		for j, p := range in.Params {
			if p.IsMatrix() {
				params[j] = matrixValues(p.Matrix)
				continue
			}
			v, err := p.Eval(c.Bindings)
			if err != nil {
				return nil, err
			}
			params[j] = v
		}
		m["params"] = params
		if in.Condition != nil {
			m["condition"] = []any{in.Condition.Register, int64(in.Condition.Value)}
		}
		if in.Label != "" {
			m["label"] = in.Label
		}
		insts[i] = m
	}

	return map[string]any{
		"qregs":        regs(c.QRegs),
		"cregs":        regs(c.CRegs),
		"instructions": insts,
	}, nil
}

func matrixValues(m [][]complex128) []any {
	rows := make([]any, len(m))
	for i, row := range m {
		cells := make([]any, len(row))
		for j, z := range row {
			cells[j] = []any{real(z), imag(z)}
		}
		rows[i] = cells
	}
	return rows
}
