package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Product number,Product name,SKU Number,Size,Color,Price,Sales,Stock,Inventory Rotation,Date,Sheet\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseRecords(t *testing.T) {
	path := writeCSV(t, header+
		"P1,Widget,1001,M,Red,9.99,4,10,0.4,2024-01-01,Jan\n"+
		"P2,Gadget,1002,L,Blue,19.5,2,5,0.1,2024-01-02,Jan\n")

	records, err := NewParser(path).ParseRecords()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "P1", records[0].ProductNumber)
	assert.Equal(t, "Widget", records[0].ProductName)
	assert.Equal(t, "10", records[0].Stock)
	assert.Equal(t, "P2", records[1].ProductNumber)
	assert.Equal(t, "Gadget", records[1].ProductName)
	assert.Equal(t, "Jan", records[1].Sheet)
}

func TestParseReaderMatchesColumnsByName(t *testing.T) {
	input := "Sheet,Extra,Date,Inventory Rotation,Stock,Sales,Price,Color,Size,SKU Number,Product name,Product number\n" +
		"Feb,ignored,2024-02-01,0.2,7,1,4.5,Green,S,2001,Lamp,P9\n"

	records, err := ParseReader(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "P9", records[0].ProductNumber)
	assert.Equal(t, "Lamp", records[0].ProductName)
	assert.Equal(t, "Feb", records[0].Sheet)
	assert.Equal(t, "7", records[0].Stock)
}

func TestParseReaderMissingColumn(t *testing.T) {
	input := "Product number,Product name,SKU Number,Size,Color,Price,Sales,Quantity,Inventory Rotation,Date,Sheet\n" +
		"P1,Widget,1001,M,Red,9.99,4,10,0.4,2024-01-01,Jan\n"

	_, err := ParseReader(strings.NewReader(input))
	require.Error(t, err)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Stock"}, missing.Columns)
}

func TestParseReaderEmptyInput(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestParseReaderHeaderOnly(t *testing.T) {
	records, err := ParseReader(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseReaderMalformedRow(t *testing.T) {
	input := header + "P1,Widget,1001\n"

	_, err := ParseReader(strings.NewReader(input))
	assert.Error(t, err)
}

func TestParseReaderStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + header + "P1,Widget,1001,M,Red,9.99,4,10,0.4,2024-01-01,Jan\n"

	records, err := ParseReader(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P1", records[0].ProductNumber)
}

func TestParseRecordsMissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "absent.csv")).ParseRecords()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
