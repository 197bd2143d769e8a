package export

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	// Runtime operands, so the sum is rounded in float64.
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0.75, "0.75"},
		{1, "1"},
		{a + b, "0.30000000000000004"},
		{-0.04, "-0.04"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}
}

func TestFormatSet(t *testing.T) {
	assert.Equal(t, `["Books","Electronics"]`, FormatSet([]string{"Electronics", "Books"}))
	assert.Equal(t, `[]`, FormatSet(nil))
	assert.Equal(t, `["Home & Garden"]`, FormatSet([]string{"Home & Garden"}))
	assert.Equal(t, `["智能手机"]`, FormatSet([]string{"智能手机"}))
}

func TestFormatSet_DoesNotReorderInput(t *testing.T) {
	in := []string{"b", "a"}
	FormatSet(in)
	assert.Equal(t, []string{"b", "a"}, in)
}

func TestWriteCSV(t *testing.T) {
	table := Table{
		Name:    "sequence_patterns",
		Columns: []string{"antecedent", "consequent", "count"},
		Rows: [][]string{
			{"Books", "Electronics", "2"},
			{"Toys", "Food, Fresh", "1"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "antecedent,consequent,count\nBooks,Electronics,2\nToys,\"Food, Fresh\",1\n", buf.String())
}

func TestWriteCSV_EmptyTableKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Table{Name: "rules_refund_patterns", Columns: []string{"antecedent", "consequent"}}))
	assert.Equal(t, "antecedent,consequent\n", buf.String())
}

func TestTable_Validate(t *testing.T) {
	ragged := Table{Name: "t", Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	assert.True(t, errors.Is(ragged.Validate(), ErrRaggedTable))

	assert.Error(t, Table{Columns: []string{"a"}}.Validate())
	assert.Error(t, Table{Name: "t"}.Validate())
	assert.NoError(t, Table{Name: "t", Columns: []string{"a"}}.Validate())
}
