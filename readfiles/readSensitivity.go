package readfiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/gobeso/filter"
	"github.com/notargets/gobeso/utils"
)

// ReadSensitivity reads "elementID,value" records. Lines starting with # are
// comments. A repeated element id is an error.
func ReadSensitivity(r io.Reader) (sn filter.SensitivityMap, err error) {
	var (
		reader = csv.NewReader(r)
		record []string
		id     int
		val    float64
	)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	sn = make(filter.SensitivityMap)
	for {
		if record, err = reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return sn, nil
			}
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		if id, err = strconv.Atoi(strings.TrimSpace(record[0])); err != nil {
			return nil, fmt.Errorf("line %d: unable to read element id: %w", line, err)
		}
		if val, err = strconv.ParseFloat(strings.TrimSpace(record[1]), 64); err != nil {
			return nil, fmt.Errorf("line %d: unable to read sensitivity of element %d: %w", line, id, err)
		}
		if utils.IsNan(val) {
			return nil, fmt.Errorf("line %d: sensitivity of element %d is NaN", line, id)
		}
		if _, ok := sn[id]; ok {
			return nil, fmt.Errorf("line %d: repeated sensitivity for element %d", line, id)
		}
		sn[id] = val
	}
}

func ReadSensitivityFile(filename string) (sn filter.SensitivityMap, err error) {
	var (
		file *os.File
	)
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	if sn, err = ReadSensitivity(file); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return
}

// WriteSensitivity writes one record per element in ascending id order, with
// values formatted to round trip exactly
func WriteSensitivity(w io.Writer, sn filter.SensitivityMap) (err error) {
	var (
		writer = csv.NewWriter(w)
		ids    = make([]int, 0, len(sn))
	)
	for id := range sn {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if err = writer.Write([]string{strconv.Itoa(id), strconv.FormatFloat(sn[id], 'g', -1, 64)}); err != nil {
			return
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteSensitivityFile(filename string, sn filter.SensitivityMap) (err error) {
	var (
		file *os.File
	)
	if file, err = os.Create(filename); err != nil {
		return fmt.Errorf("unable to create file %s: %w", filename, err)
	}
	if err = WriteSensitivity(file, sn); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", filename, err)
	}
	return file.Close()
}
