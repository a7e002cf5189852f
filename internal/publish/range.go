package publish

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Range is a rectangular block of cells on one sheet tab. Rows and
// columns are 1-based, end bounds inclusive.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// Ref renders the range as an A1 reference, quoting the tab title when
// it contains characters the A1 grammar would misread.
func (r Range) Ref() string {
	title := r.Sheet
	if strings.ContainsAny(title, " !'") {
		title = "'" + strings.ReplaceAll(title, "'", "''") + "'"
	}
	return fmt.Sprintf("%s!%s%d:%s%d",
		title, colName(r.StartCol), r.StartRow, colName(r.EndCol), r.EndRow)
}

// Overlaps reports whether two ranges on the same tab share any cell.
func (r Range) Overlaps(o Range) bool {
	if r.Sheet != o.Sheet {
		return false
	}
	if r.EndCol < o.StartCol || o.EndCol < r.StartCol {
		return false
	}
	if r.EndRow < o.StartRow || o.EndRow < r.StartRow {
		return false
	}
	return true
}

// parseRef parses an A1 reference of the form Title!B2:K4 back into a
// Range. Single-quoted titles are unquoted.
func parseRef(ref string) (Range, error) {
	bang := strings.LastIndex(ref, "!")
	if bang < 0 {
		return Range{}, eris.Errorf("publish: reference %q has no sheet title", ref)
	}
	title := ref[:bang]
	if strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'") && len(title) >= 2 {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}

	cells := strings.SplitN(ref[bang+1:], ":", 2)
	startCol, startRow, err := parseCell(cells[0])
	if err != nil {
		return Range{}, eris.Wrapf(err, "publish: reference %q", ref)
	}
	endCol, endRow := startCol, startRow
	if len(cells) == 2 {
		endCol, endRow, err = parseCell(cells[1])
		if err != nil {
			return Range{}, eris.Wrapf(err, "publish: reference %q", ref)
		}
	}
	return Range{Sheet: title, StartCol: startCol, StartRow: startRow, EndCol: endCol, EndRow: endRow}, nil
}

func parseCell(cell string) (col, row int, err error) {
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(cell) {
		return 0, 0, eris.Errorf("invalid cell %q", cell)
	}
	col, err = colNumber(cell[:i])
	if err != nil {
		return 0, 0, err
	}
	row, err = strconv.Atoi(cell[i:])
	if err != nil || row < 1 {
		return 0, 0, eris.Errorf("invalid cell %q", cell)
	}
	return col, row, nil
}

// colNumber converts a column letter reference ("A", "AB") to its
// 1-based column number.
func colNumber(ref string) (int, error) {
	if ref == "" {
		return 0, eris.New("publish: empty column reference")
	}
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			return 0, eris.Errorf("publish: invalid column reference %q", ref)
		}
		n = n*26 + int(c-'A') + 1
	}
	return n, nil
}

// colName converts a 1-based column number to its letter reference.
func colName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
