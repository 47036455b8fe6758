package detect

import (
	"coordscan/pkg/core/normalize"
	"coordscan/pkg/core/tabular"
)

// FlagTable runs the full detection pass over an exported table and writes
// the five detection columns back in place. Detection happens on a
// normalized copy; the original keeps its headers, row order and every
// non-detection value. Returns the number of coordinated rows.
//
// An empty export still gets the detection columns so the output schema is
// stable.
func FlagTable(t *tabular.Table, p Params) (int, error) {
	basis := p.Basis.Label()
	if len(t.Rows) == 0 {
		return 0, Overlay(t, nil, basis)
	}

	flags, err := Compute(normalize.Headers(t), p)
	if err != nil {
		return 0, err
	}
	if err := Overlay(t, flags, basis); err != nil {
		return 0, err
	}

	n := 0
	for _, f := range flags {
		if f.Coordinated {
			n++
		}
	}
	return n, nil
}
