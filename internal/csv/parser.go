package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/diegovalduran/productloader/internal/models"

	"github.com/jszwec/csvutil"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingHeader is returned for an input without a header row.
var ErrMissingHeader = errors.New("CSV file has no header row")

// MissingColumnsError lists required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

type Parser struct {
	filename string
}

func NewParser(filename string) *Parser {
	return &Parser{filename: filename}
}

// ParseRecords reads every product record of the file, in file order.
func (p *Parser) ParseRecords() ([]models.ProductRecord, error) {
	file, err := os.Open(p.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	records, err := ParseReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.filename, err)
	}
	return records, nil
}

// ParseReader decodes product records from r. Columns are matched by header
// name; extra columns are ignored and a missing one fails the whole table.
func ParseReader(r io.Reader) ([]models.ProductRecord, error) {
	reader := csv.NewReader(skipBOM(r))

	decoder, err := csvutil.NewDecoder(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	decoder.DisallowMissingColumns = true

	if missing := missingColumns(decoder.Header()); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var records []models.ProductRecord
	if err := decoder.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.ProductRecord{}, nil
		}
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}

	return records, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}

	var missing []string
	for _, name := range models.Columns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
