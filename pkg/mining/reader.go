package mining

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadOptions controls how a dataset is indexed.
type ReadOptions struct {
	// NoClasses disables class items: every item can be mined.
	NoClasses bool
	// NbValues is the number of attribute files ReadDatFile loads.
	NbValues int
	// Values are attribute rows used by ReadDat and FromTransactions.
	Values [][]int
}

// skipLine reports whether a dataset line carries no transaction.
func skipLine(line string) bool {
	return line == "" || line[0] == '#' || line[0] == '%' || line[0] == '@'
}

// ReadDat reads a dataset in the .dat format: one transaction per line,
// items as space separated integers. Items are indexed by increasing label.
// Unless NoClasses is set, the first item of each line is the class of the
// transaction and the classes are the lowest indexed items.
func ReadDat(r io.Reader, opts ReadOptions) (*Database, error) {
	var transactions [][]int
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if skipLine(line) {
			continue
		}
		fields := strings.Fields(line)
		tr := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: invalid item %q", lineNo, f)
			}
			tr[i] = v
		}
		transactions = append(transactions, tr)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading transactions")
	}
	return FromTransactions(transactions, opts)
}

// ReadDatFile reads a .dat dataset and, when opts.NbValues > 0, the
// attribute files next to it: data.dat comes with data.val0, data.val1...
func ReadDatFile(path string, opts ReadOptions) (*Database, error) {
	if opts.NbValues > 0 {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		values := make([][]int, opts.NbValues)
		for k := range values {
			row, err := readFile(fmt.Sprintf("%s.val%d", base, k), ReadValues)
			if err != nil {
				return nil, err
			}
			values[k] = row
		}
		opts.Values = values
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening dataset")
	}
	defer f.Close()
	db, err := ReadDat(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return db, nil
}

// ReadValues reads one decimal value per line and scales it by 100 so that
// two decimals are kept as integers.
func ReadValues(r io.Reader) ([]int, error) {
	var values []int
	err := eachLine(r, func(lineNo int, line string) error {
		f, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return errors.Wrapf(err, "line %d: invalid value %q", lineNo, line)
		}
		values = append(values, int(math.Round(f*100)))
		return nil
	})
	return values, err
}

// ReadItemList reads one item label per line.
func ReadItemList(r io.Reader) ([]int, error) {
	var items []int
	err := eachLine(r, func(lineNo int, line string) error {
		v, err := strconv.Atoi(line)
		if err != nil {
			return errors.Wrapf(err, "line %d: invalid item %q", lineNo, line)
		}
		items = append(items, v)
		return nil
	})
	return items, err
}

// ReadLabels reads one display label per line.
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	err := eachLine(r, func(_ int, line string) error {
		labels = append(labels, line)
		return nil
	})
	return labels, err
}

// ReadItemListFile reads an item list file.
func ReadItemListFile(path string) ([]int, error) { return readFile(path, ReadItemList) }

// ReadLabelsFile reads a label file.
func ReadLabelsFile(path string) ([]string, error) { return readFile(path, ReadLabels) }

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, errors.Wrapf(err, "reading %s", path)
	}
	return v, nil
}

func eachLine(r io.Reader, fn func(lineNo int, line string) error) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return errors.Wrap(sc.Err(), "scanning")
}
