package tabular

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestColAndGetSet(t *testing.T) {
	tbl := New([]string{"a", "b"})
	tbl.Append([]string{"1", "2"})

	if tbl.Col("b") != 1 || tbl.Col("missing") != -1 {
		t.Errorf("Col positions wrong")
	}
	if tbl.Get(0, "a") != "1" {
		t.Errorf("Get = %q", tbl.Get(0, "a"))
	}
	if tbl.Get(0, "missing") != "" || tbl.Get(5, "a") != "" {
		t.Errorf("absent cells should read as empty")
	}

	if err := tbl.Set(0, "b", "9"); err != nil {
		t.Fatal(err)
	}
	if tbl.Get(0, "b") != "9" {
		t.Errorf("Set did not stick")
	}
	if err := tbl.Set(0, "missing", "x"); err == nil {
		t.Errorf("Set on a missing column should error")
	}
	if err := tbl.Set(7, "a", "x"); err == nil {
		t.Errorf("Set out of range should error")
	}
}

func TestEnsureCol(t *testing.T) {
	tbl := New([]string{"a"})
	tbl.Append([]string{"1"})
	tbl.Append([]string{"2"})

	tbl.EnsureCol("flag", "False")
	if tbl.Get(0, "flag") != "False" || tbl.Get(1, "flag") != "False" {
		t.Errorf("default not applied to existing rows")
	}

	// Re-ensuring must not reset values.
	tbl.Set(0, "flag", "True")
	tbl.EnsureCol("flag", "False")
	if tbl.Get(0, "flag") != "True" {
		t.Errorf("EnsureCol overwrote an existing column")
	}
}

func TestAppendPadsAndTruncates(t *testing.T) {
	tbl := New([]string{"a", "b", "c"})
	tbl.Append([]string{"1"})
	tbl.Append([]string{"1", "2", "3", "4"})

	if got := tbl.Get(0, "c"); got != "" {
		t.Errorf("short row should pad, got %q", got)
	}
	if len(tbl.Rows[1]) != 3 {
		t.Errorf("long row should truncate to header width, got %d cells", len(tbl.Rows[1]))
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := New([]string{"a"})
	tbl.Append([]string{"1"})
	c := tbl.Clone()
	c.Set(0, "a", "changed")
	c.Headers[0] = "renamed"
	if tbl.Get(0, "a") != "1" || tbl.Headers[0] != "a" {
		t.Errorf("clone shares storage with the original")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	in := "issuer,price\n\"ACME, INC\",10.00\nBETA AB,\n"
	tbl, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Get(0, "issuer") != "ACME, INC" {
		t.Errorf("quoted field = %q", tbl.Get(0, "issuer"))
	}

	var buf bytes.Buffer
	if err := tbl.Write(&buf); err != nil {
		t.Fatal(err)
	}
	reread, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(reread.Rows) != 2 || reread.Get(0, "issuer") != "ACME, INC" || reread.Get(1, "price") != "" {
		t.Errorf("round trip lost data: %+v", reread.Rows)
	}
}

func TestReadEmpty(t *testing.T) {
	tbl, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Headers) != 0 || len(tbl.Rows) != 0 {
		t.Errorf("empty input should yield an empty table")
	}
}

func TestReadRaggedRows(t *testing.T) {
	in := "a,b,c\n1,2\n1,2,3,4\n"
	tbl, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ragged CSV should be tolerated: %v", err)
	}
	if tbl.Get(0, "c") != "" {
		t.Errorf("short record should read as empty")
	}
}

func TestWriteFileAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	tbl := New([]string{"a", "b"})
	tbl.Append([]string{"1", "2"})
	if err := tbl.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Get(0, "b") != "2" {
		t.Errorf("file round trip = %q", got.Get(0, "b"))
	}
}
