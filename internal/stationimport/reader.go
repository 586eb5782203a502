package stationimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/busnow/api/models"
)

// RowError is a CSV row that could not be turned into a station
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ReadResult holds the parsed stations and the rows that were rejected
type ReadResult struct {
	Stations []models.Station
	Rejected []RowError
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadStations parses a station CSV. A bad row is recorded in Rejected and
// reading continues; only an unreadable header fails the whole file.
func ReadStations(r io.Reader, src Source) (*ReadResult, error) {
	var in io.Reader = r
	if src.Encoding == EncodingEUCKR {
		in = transform.NewReader(r, korean.EUCKR.NewDecoder())
	}
	br := bufio.NewReader(in)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx := makeIndex(header)
	for _, col := range []string{src.Columns.ID, src.Columns.Name, src.Columns.Longitude, src.Columns.Latitude} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	tag := models.SourceTag(src.Location)
	result := &ReadResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
			result.Rejected = append(result.Rejected, RowError{Line: pe.Line, Err: err})
			continue
		}
		line, _ := reader.FieldPos(0)

		st, err := parseRow(record, idx, src.Columns, tag)
		if err != nil {
			result.Rejected = append(result.Rejected, RowError{Line: line, Err: err})
			continue
		}
		result.Stations = append(result.Stations, st)
	}

	return result, nil
}

func parseRow(record []string, idx map[string]int, cols Columns, tag models.SourceTag) (models.Station, error) {
	st := models.Station{
		ID:     getField(record, idx, cols.ID),
		Name:   getField(record, idx, cols.Name),
		Source: tag,
	}
	lonStr := getField(record, idx, cols.Longitude)
	latStr := getField(record, idx, cols.Latitude)
	if st.ID == "" || st.Name == "" || lonStr == "" || latStr == "" {
		return st, fmt.Errorf("missing required field (id=%q name=%q x=%q y=%q)", st.ID, st.Name, lonStr, latStr)
	}

	var err error
	if st.Longitude, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return st, fmt.Errorf("invalid longitude %q", lonStr)
	}
	if st.Latitude, err = strconv.ParseFloat(latStr, 64); err != nil {
		return st, fmt.Errorf("invalid latitude %q", latStr)
	}
	if err := st.Validate(); err != nil {
		return st, err
	}
	return st, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
