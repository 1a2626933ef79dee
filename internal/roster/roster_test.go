package roster

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/aanand-mishra/camp-control/internal/types"
	"github.com/xuri/excelize/v2"
)

func TestExportImport(t *testing.T) {
	in := []types.Student{
		{
			ID: "s-1", Name: "Lucía", DNI: "40111222",
			Paid: true, Amount: 1500.5, Authorization: true,
			Medication:       types.StringPtr("ibuprofeno"),
			EmergencyContact: types.StringPtr("Marta 555-0101"),
		},
		{ID: "s-2", Name: "Bruno", DNI: "41999888", CannotPay: true},
		{
			ID: "s-3", Name: "Carla", DNI: "42000111",
			SpecialCare:     types.StringPtr(""),
			FeverMedication: types.StringPtr("paracetamol"),
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, in); err != nil {
		t.Fatalf("export: %v", err)
	}

	res, err := Import(&buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skipped rows %v", res.Skipped)
	}
	if !reflect.DeepEqual(res.Students, in) {
		t.Fatalf("got %+v\nwant %+v", res.Students, in)
	}
	if got := res.Students[2].SpecialCare; got == nil || *got != "" {
		t.Fatalf("empty specialCare must come back empty, got %v", got)
	}
	if res.Students[2].Medication != nil {
		t.Fatalf("absent medication must come back absent")
	}
}

func TestImport_SkipsUnreadableRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"id", "name", "dni", "paid", "amount"},
		{"", "Ana", "1", "sí", "1200,50"},
		{"x", "", "2", "no", "0"},
		{"y", "Sin DNI", "", "", ""},
		{"z", "Mala", "3", "quizás", ""},
		{},
		{"w", "Pago raro", "4", "no", "mucho"},
		{"v", "Coma", "5", "no", "1,500"},
		{"u", "Punto", "6", "no", "1.500"},
		{"t", "Miles", "7", "sí", "1.500,50"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := r
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := Import(&buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(res.Students) != 2 {
		t.Fatalf("expected 2 students, got %+v", res.Students)
	}
	got := res.Students[0]
	if got.ID != "" || got.Name != "Ana" || !got.Paid || got.Amount != 1200.5 {
		t.Fatalf("unexpected student %+v", got)
	}
	if got.Medication != nil {
		t.Fatalf("missing cell must import as absent")
	}
	if res.Students[1].Amount != 1500.5 {
		t.Fatalf("grouped amount = %v, want 1500.5", res.Students[1].Amount)
	}
	if want := []int{3, 4, 5, 7, 8, 9}; !reflect.DeepEqual(res.Skipped, want) {
		t.Fatalf("skipped = %v, want %v", res.Skipped, want)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "1500", want: 1500},
		{in: "1500.5", want: 1500.5},
		{in: "1200,50", want: 1200.5},
		{in: "0,125", want: 0.125},
		{in: "1234.125", want: 1234.125},
		{in: "1.500,50", want: 1500.5},
		{in: "1,500.50", want: 1500.5},
		{in: "1.500.000", want: 1500000},
		{in: "-250,5", want: -250.5},
		{in: "1,500", wantErr: true},
		{in: "1.500", wantErr: true},
		{in: "1,2,3", wantErr: true},
		{in: "12.34,5", wantErr: true},
		{in: "1500,", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "mucho", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseAmount(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseAmount(%q) = %v, want error", tc.in, got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("parseAmount(%q) = %v, %v, want %v", tc.in, got, err, tc.want)
			}
		})
	}
}

func TestImport_NotAWorkbook(t *testing.T) {
	if _, err := Import(bytes.NewReader([]byte("id,name\n1,Ana\n"))); err == nil {
		t.Fatalf("expected error for non-xlsx input")
	}
}
