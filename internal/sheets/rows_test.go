package sheets

import (
	"testing"
)

func TestParseTableEmpty(t *testing.T) {
	table := ParseTable(nil)
	if len(table.Headers) != 0 || len(table.Rows) != 0 {
		t.Errorf("Expected empty table, got %+v", table)
	}
}

func TestParseTableSkipsRowsWithoutID(t *testing.T) {
	data := [][]interface{}{
		{"ID", "Title", "Amount"},
		{"101", "Renewal", 1500},
		{"", "No record", 10},
		{nil, "Also no record", 20},
		{"102", "Upsell", 900},
	}

	table := ParseTable(data)

	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows with record ids, got %d", len(table.Rows))
	}
	if table.Rows[0].RecordID != "101" || table.Rows[1].RecordID != "102" {
		t.Errorf("Unexpected record ids %q, %q", table.Rows[0].RecordID, table.Rows[1].RecordID)
	}
}

func TestParseTableRowIndexIsSheetRow(t *testing.T) {
	data := [][]interface{}{
		{"ID", "Title"},
		{"", "skipped"},
		{"7", "kept"},
	}

	table := ParseTable(data)

	if len(table.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(table.Rows))
	}
	if table.Rows[0].Index != 3 {
		t.Errorf("Expected sheet row 3, got %d", table.Rows[0].Index)
	}
}

func TestParseTableCellsKeyedByHeader(t *testing.T) {
	data := [][]interface{}{
		{"ID", " Title ", "Amount", ""},
		{"5", "Renewal", 1500, "in unnamed column"},
	}

	table := ParseTable(data)

	row := table.Rows[0]
	if row.Cells["Title"] != "Renewal" {
		t.Errorf("Expected trimmed header as key, got %v", row.Cells)
	}
	if row.Cells["Amount"] != 1500 {
		t.Errorf("Expected amount cell preserved, got %v", row.Cells["Amount"])
	}
	if len(row.Cells) != 2 {
		t.Errorf("Expected unnamed column dropped, got %v", row.Cells)
	}
	if _, ok := row.Cells["ID"]; ok {
		t.Error("ID column must not appear among data cells")
	}
}

func TestParseTableShortRows(t *testing.T) {
	data := [][]interface{}{
		{"ID", "Title", "Amount"},
		{"9", "only two cells"},
	}

	table := ParseTable(data)

	row := table.Rows[0]
	if row.Cells["Title"] != "only two cells" {
		t.Errorf("Expected present cell kept, got %v", row.Cells)
	}
	if _, ok := row.Cells["Amount"]; ok {
		t.Errorf("Expected missing trailing cell absent, got %v", row.Cells)
	}
}
