package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qbitshift/qopt/circuit"
)

// opsByName maps lowercased gate names to op types for the text
// format, e.g. "cx 0 1" or "rz 1.5708 0".
var opsByName = func() map[string]circuit.OpType {
	m := make(map[string]circuit.OpType)
	for _, t := range circuit.OpTypes() {
		m[strings.ToLower(t.String())] = t
	}
	return m
}()

// readCircuit parses the line-oriented circuit format: a "qubits N"
// header, then one gate per line as the lowercased op name, its
// angle parameters, and its qubit indices. Blank lines and
// "#"-comments are ignored.
func readCircuit(r io.Reader) (*circuit.Circuit, error) {
	sc := bufio.NewScanner(r)
	var c *circuit.Circuit
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if c == nil {
			if fields[0] != "qubits" || len(fields) != 2 {
				return nil, fmt.Errorf("line %d: expected \"qubits N\" header", lineNo)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("line %d: bad qubit count %q", lineNo, fields[1])
			}
			c = circuit.New(n)
			continue
		}
		op, ok := opsByName[strings.ToLower(fields[0])]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown gate %q", lineNo, fields[0])
		}
		args := fields[1:]
		if len(args) < op.NParams() {
			return nil, fmt.Errorf("line %d: %s needs %d parameters", lineNo, op, op.NParams())
		}
		params := make([]float64, op.NParams())
		for i := range params {
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad angle %q", lineNo, args[i])
			}
			params[i] = v
		}
		args = args[op.NParams():]
		if op.NQubits() > 0 && len(args) != op.NQubits() {
			return nil, fmt.Errorf("line %d: %s acts on %d qubits, got %d", lineNo, op, op.NQubits(), len(args))
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("line %d: %s needs at least one qubit", lineNo, op)
		}
		qubits := make([]int, len(args))
		for i, a := range args {
			q, err := strconv.Atoi(a)
			if err != nil || q < 0 || q >= c.NQubits {
				return nil, fmt.Errorf("line %d: bad qubit %q", lineNo, a)
			}
			qubits[i] = q
		}
		c.Add(op, qubits, params...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("empty circuit file")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func writeCircuit(w io.Writer, c *circuit.Circuit) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "qubits %d\n", c.NQubits)
	for _, g := range c.Gates {
		parts := []string{strings.ToLower(g.Op.String())}
		for _, p := range g.Params {
			parts = append(parts, strconv.FormatFloat(p, 'g', -1, 64))
		}
		for _, q := range g.Qubits {
			parts = append(parts, strconv.Itoa(q))
		}
		fmt.Fprintln(bw, strings.Join(parts, " "))
	}
	if c.Perm != nil {
		parts := make([]string, len(c.Perm))
		for i, v := range c.Perm {
			parts[i] = strconv.Itoa(v)
		}
		fmt.Fprintf(bw, "# output permutation: %s\n", strings.Join(parts, " "))
	}
	return bw.Flush()
}
