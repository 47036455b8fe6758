package detect

import (
	"fmt"
	"strconv"

	"coordscan/pkg/core/tabular"
)

// The five detection columns the overlay owns. Nothing else in the table is
// touched.
const (
	ColCoordinated = "coordinated"
	ColBuyers      = "coordinated_buyers"
	ColSpanAbs     = "coord_span_abs"
	ColSpanPct     = "coord_span_pct"
	ColBasis       = "coord_basis"
)

// FlagColumns lists the detection columns in output order.
var FlagColumns = []string{ColCoordinated, ColBuyers, ColSpanAbs, ColSpanPct, ColBasis}

// Overlay writes flags onto the original, unfiltered table by row-identity
// alignment. Row count and order are untouched and every non-detection
// column keeps its exact value; rows excluded from detection keep neutral
// defaults. Re-running detection on unchanged input and overlaying again
// reproduces the same bytes.
func Overlay(t *tabular.Table, flags []Flags, basis string) error {
	if len(t.Rows) != len(flags) {
		return fmt.Errorf("flag overlay mismatch: %d rows, %d flags", len(t.Rows), len(flags))
	}

	t.EnsureCol(ColCoordinated, "False")
	t.EnsureCol(ColBuyers, "0")
	t.EnsureCol(ColSpanAbs, "")
	t.EnsureCol(ColSpanPct, "")
	t.EnsureCol(ColBasis, basis)

	for i, f := range flags {
		if err := t.Set(i, ColCoordinated, pyBool(f.Coordinated)); err != nil {
			return err
		}
		if err := t.Set(i, ColBuyers, strconv.Itoa(f.Buyers)); err != nil {
			return err
		}
		if err := t.Set(i, ColSpanAbs, f.SpanAbs); err != nil {
			return err
		}
		if err := t.Set(i, ColSpanPct, f.SpanPct); err != nil {
			return err
		}
		if err := t.Set(i, ColBasis, f.Basis); err != nil {
			return err
		}
	}
	return nil
}

// pyBool keeps the True/False spelling of the historical flagged exports so
// downstream consumers stay compatible.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
