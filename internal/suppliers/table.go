// Package suppliers loads the supplier reference table and resolves supplier
// root codes to display names.
package suppliers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrRead indicates the reference table could not be read in full.
var ErrRead = errors.New("suppliers: read reference table")

const fieldSeparator = ";"

// Resolver maps a supplier root code to its display name.
type Resolver interface {
	Resolve(code string) (string, bool)
}

// Table is a parsed reference table keyed by supplier root code.
type Table map[string]string

// Resolve returns the display name for code.
func (t Table) Resolve(code string) (string, bool) {
	name, ok := t[code]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Len reports how many codes the table knows.
func (t Table) Len() int {
	return len(t)
}

// Parse reads `code;fullName;shortName` lines. The first line is a header.
// Blank and malformed lines are skipped; whatever was parsed before a read
// failure is returned together with ErrRead.
func Parse(r io.Reader) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		code, name, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		table[code] = name
	}
	if err := scanner.Err(); err != nil {
		return table, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return table, nil
}

func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	cols := strings.Split(line, fieldSeparator)
	code := strings.TrimSpace(cols[0])
	if code == "" {
		return "", "", false
	}
	var fullName, shortName string
	if len(cols) > 1 {
		fullName = strings.TrimSpace(cols[1])
	}
	if len(cols) > 2 {
		shortName = strings.TrimSpace(cols[2])
	}
	name := shortName
	if name == "" {
		name = fullName
	}
	if name == "" {
		return "", "", false
	}
	return code, name, true
}
