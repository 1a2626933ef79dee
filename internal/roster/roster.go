// Package roster reads and writes the camp roster as an .xlsx workbook.
//
// The first row is a header; each following row is one student with the
// columns in Columns order. An absent optional field is an empty cell. An
// optional field that is present but empty is written as EmptyValue so
// the two survive a round trip.
package roster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aanand-mishra/camp-control/internal/types"
	"github.com/xuri/excelize/v2"
)

// SheetName is the sheet Export writes to.
const SheetName = "Alumnos"

// EmptyValue marks an optional field that is set to the empty string.
const EmptyValue = `""`

// Columns is the header row, in the order cells are laid out.
var Columns = []string{
	"id", "name", "dni", "paid", "amount", "cannotPay", "authorization",
	"medication", "specialCare", "headacheMedication", "feverMedication", "emergencyContact",
}

// Export writes students to w as a single-sheet workbook.
func Export(w io.Writer, students []types.Student) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("closing roster workbook", slog.String("error", err.Error()))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("roster.Export: rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("roster.Export: header: %w", err)
	}

	for i, s := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("roster.Export: row %d: %w", i+2, err)
		}
		row := []any{
			s.ID, s.Name, s.DNI, s.Paid, s.Amount, s.CannotPay, s.Authorization,
			optional(s.Medication), optional(s.SpecialCare), optional(s.HeadacheMedication),
			optional(s.FeverMedication), optional(s.EmergencyContact),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("roster.Export: row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("roster.Export: write: %w", err)
	}
	return nil
}

// Result is what Import found in a workbook.
type Result struct {
	Students []types.Student
	// Skipped holds the 1-based row numbers that could not be read.
	Skipped []int
}

// Import reads the first sheet of the workbook in r. Rows without a name
// or DNI, or with an unreadable or ambiguous boolean or amount, are
// skipped. A missing
// id is left empty for the caller to assign.
func Import(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("roster.Import: open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("closing roster workbook", slog.String("error", err.Error()))
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Result{}, errors.New("roster.Import: workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("roster.Import: read sheet %s: %w", sheet, err)
	}

	res := Result{Students: make([]types.Student, 0, len(rows))}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if blank(row) {
			continue
		}

		s, err := parseRow(row)
		if err != nil {
			slog.Debug("skipping roster row", slog.Int("row", i+1), slog.String("error", err.Error()))
			res.Skipped = append(res.Skipped, i+1)
			continue
		}
		res.Students = append(res.Students, s)
	}

	return res, nil
}

func parseRow(row []string) (types.Student, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	s := types.Student{
		ID:   cell(0),
		Name: cell(1),
		DNI:  cell(2),
	}
	if s.Name == "" || s.DNI == "" {
		return types.Student{}, errors.New("missing name or dni")
	}

	var err error
	if s.Paid, err = parseBool(cell(3)); err != nil {
		return types.Student{}, fmt.Errorf("paid: %w", err)
	}
	if s.Amount, err = parseAmount(cell(4)); err != nil {
		return types.Student{}, fmt.Errorf("amount: %w", err)
	}
	if s.CannotPay, err = parseBool(cell(5)); err != nil {
		return types.Student{}, fmt.Errorf("cannotPay: %w", err)
	}
	if s.Authorization, err = parseBool(cell(6)); err != nil {
		return types.Student{}, fmt.Errorf("authorization: %w", err)
	}

	s.Medication = present(cell(7))
	s.SpecialCare = present(cell(8))
	s.HeadacheMedication = present(cell(9))
	s.FeverMedication = present(cell(10))
	s.EmergencyContact = present(cell(11))

	return s, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "si", "sí", "yes", "x":
		return true, nil
	case "false", "0", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", v)
	}
}

// parseAmount reads an amount written with either "." or "," as the
// decimal separator. When both appear, the last one is the decimal
// separator and the other groups thousands. A single separator followed by
// exactly three digits ("1.500", "1,500") could be either, so it is
// rejected rather than guessed.
func parseAmount(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}

	sign := ""
	if v[0] == '-' {
		sign, v = "-", v[1:]
	}

	whole, frac, group := v, "", byte(0)
	if i := strings.LastIndexAny(v, ".,"); i >= 0 {
		sep := v[i]
		if strings.Count(v, string(sep)) > 1 {
			// "1.500.000": a repeated separator only groups thousands.
			group = sep
		} else {
			whole, frac = v[:i], v[i+1:]
			group = otherSeparator(sep)
			if frac == "" || !digits(frac) {
				return 0, fmt.Errorf("not an amount: %q", sign+v)
			}
			if !strings.ContainsRune(whole, rune(group)) && ambiguous(whole, frac) {
				return 0, fmt.Errorf("ambiguous amount %q: use a two-digit decimal part or group thousands", sign+v)
			}
		}
	}

	n, ok := ungroup(whole, group)
	if !ok {
		return 0, fmt.Errorf("not an amount: %q", sign+v)
	}
	if frac != "" {
		n += "." + frac
	}
	return strconv.ParseFloat(sign+n, 64)
}

func otherSeparator(sep byte) byte {
	if sep == '.' {
		return ','
	}
	return '.'
}

// ambiguous reports whether whole+sep+frac also reads as a thousands
// grouping.
func ambiguous(whole, frac string) bool {
	return len(frac) == 3 && len(whole) >= 1 && len(whole) <= 3 && whole[0] != '0'
}

// ungroup strips thousands separators from whole, checking that every
// group after the first has three digits.
func ungroup(whole string, sep byte) (string, bool) {
	if sep == 0 || !strings.ContainsRune(whole, rune(sep)) {
		return whole, digits(whole)
	}

	parts := strings.Split(whole, string(sep))
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return "", false
	}
	for i, p := range parts {
		if !digits(p) || (i > 0 && len(p) != 3) {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}

func digits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func optional(p *string) any {
	switch {
	case p == nil:
		return nil
	case *p == "":
		return EmptyValue
	default:
		return *p
	}
}

func present(v string) *string {
	switch v {
	case "":
		return nil
	case EmptyValue:
		return types.StringPtr("")
	default:
		return &v
	}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
