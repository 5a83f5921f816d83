package rfq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatField_GrandTotal(t *testing.T) {
	got, ok := FormatField(GrandTotalField, "1,234.56")
	require.True(t, ok)
	assert.Equal(t, "Grand total: 1,234.56", got)

	again, ok := FormatField(GrandTotalField, got)
	require.True(t, ok)
	assert.Equal(t, got, again, "prefix must not be duplicated")
}

func TestFormatField_Plain(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
		ok    bool
	}{
		{"string", "PO-1", "PO-1", true},
		{"number", json.Number("500"), "500", true},
		{"bool", true, "true", true},
		{"nil is not rendered", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatField("po_number", tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatField_GrandTotalNumber(t *testing.T) {
	got, ok := FormatField(GrandTotalField, json.Number("520"))
	require.True(t, ok)
	assert.Equal(t, "Grand total: 520", got)
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"grand_total":"500","po_number":"PO-1","id":1}`))
	require.NoError(t, err)

	assert.Equal(t, json.Number("1"), rec["id"])
	assert.True(t, rec.Clean("po_number", "PO-1"))
	assert.False(t, rec.Clean("po_number", "PO-2"))
	assert.False(t, rec.Clean("id", "1"), "numbers never equal text")
	assert.False(t, rec.Clean("missing", ""), "absent fields are dirty")

	_, err = DecodeRecord([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeRecord([]byte(`null`))
	assert.Error(t, err)
}

func TestSnapshot_CanonicalizesTabKeys(t *testing.T) {
	payload := `{
		"rfq_id": 1,
		"tabs": [{"tab_index": 0, "name": "Tab A"}, {"tab_index": 1, "name": "Tab B"}],
		"lines": {
			"0": [{"id": 7, "qty": 2, "unit_price": 10, "line_total": 20.0}],
			"x": [{"id": 8}]
		}
	}`

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &snap))

	require.Len(t, snap.Tabs, 2)
	assert.Equal(t, Tab{Index: 1, Name: "Tab B"}, snap.Tabs[1])

	rows := snap.Rows(0)
	require.Len(t, rows, 1)
	assert.Equal(t, LineID("7"), rows[0].ID)
	assert.Equal(t, "20", rows[0].CellText(Columns[7]))
	assert.Nil(t, snap.Rows(1))
	assert.Len(t, snap.Lines, 1, "non-integer keys are dropped")
}

func TestSnapshot_ArrayLines(t *testing.T) {
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"tabs":[{"index":3,"name":"C"}],"lines":[[],[{"id":"a-1"}]]}`), &snap))

	assert.Equal(t, 3, snap.Tabs[0].Index)
	assert.Nil(t, snap.Rows(0))
	require.Len(t, snap.Rows(1), 1)
	assert.Equal(t, LineID("a-1"), snap.Rows(1)[0].ID)
}

func TestSnapshot_OddNumericCells(t *testing.T) {
	payload := `{
		"tabs": [{"tab_index": "1", "name": "Strings"}],
		"lines": {"1": [
			{"id": 1, "tab_index": "1", "qty": "", "unit_price": "n/a", "line_total": true},
			{"id": 2, "tab_index": 1, "qty": "3", "unit_price": 2.50, "line_total": {"x": 1}},
			{"id": 3, "qty": 4, "unit_price": 5, "line_total": 20}
		]}
	}`

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &snap))
	assert.Equal(t, 1, snap.Tabs[0].Index)

	rows := snap.Rows(1)
	require.Len(t, rows, 3, "odd cells do not drop the other rows")

	cells := func(l Line) []string {
		return []string{l.CellText(Columns[4]), l.CellText(Columns[6]), l.CellText(Columns[7])}
	}
	assert.Equal(t, []string{"", "n/a", "true"}, cells(rows[0]))
	assert.Equal(t, []string{"3", "2.5", `{"x": 1}`}, cells(rows[1]))
	assert.Equal(t, []string{"4", "5", "20"}, cells(rows[2]))
}

func TestOptNumber(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		text  string
	}{
		{`null`, false, ""},
		{`12.50`, true, "12.5"},
		{`"7"`, true, "7"},
		{`""`, false, ""},
		{`"n/a"`, false, "n/a"},
		{`false`, false, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n OptNumber
			require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
			assert.Equal(t, tt.valid, n.Decimal.Valid)
			assert.Equal(t, tt.text, n.Text())
		})
	}
}

func TestSnapshot_NilSafe(t *testing.T) {
	var snap *Snapshot
	assert.Nil(t, snap.Rows(0))
	_, ok := snap.FirstTab()
	assert.False(t, ok)
	assert.False(t, snap.SetTabName(0, "x"))
}

func TestLine_CellDefaults(t *testing.T) {
	var line Line
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"line_no":2,"item":"Pump","mdf_code":null,"uom":"","qty":null}`), &line))

	want := []string{"2", "Pump", "3FC", "None", "", "", "", ""}
	for i, c := range Columns {
		assert.Equal(t, want[i], line.CellText(c), c.Field)
	}
}

func TestCoerceCell(t *testing.T) {
	assert.Equal(t, json.Number("5"), CoerceCell(FieldQty, "5"))
	assert.Equal(t, json.Number("2.5"), CoerceCell(FieldUnitPrice, "2.50"))
	assert.Nil(t, CoerceCell(FieldQty, ""), "empty numeric text is an explicit null, not zero")
	assert.Nil(t, CoerceCell(FieldQty, "abc"))
	assert.Equal(t, "", CoerceCell(FieldItem, ""))
	assert.Equal(t, "Valve", CoerceCell(FieldItem, "Valve"))
}

func TestLineEdit_Payload(t *testing.T) {
	edit := LineEdit{ID: "7", Field: FieldQty, Value: CoerceCell(FieldQty, "5")}
	data, err := json.Marshal(edit.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":5}`, string(data))

	edit = LineEdit{ID: "7", Field: FieldQty, Value: CoerceCell(FieldQty, "")}
	data, err = json.Marshal(edit.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":null}`, string(data))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "PO-2", Normalize("  PO-2\n"))
	assert.Equal(t, "", Normalize(""))
}
