package sheets

import (
	"fmt"
	"strconv"
	"time"
)

// Cell provides type-safe access to a value read from Google Sheets
type Cell struct {
	raw interface{}
}

// NewCell creates a Cell from a raw value returned by the Sheets API
func NewCell(raw interface{}) Cell {
	return Cell{raw: raw}
}

// CellAt returns the cell at row, col of a read range, empty when out of range
func CellAt(values [][]interface{}, row, col int) Cell {
	if row < 0 || row >= len(values) || col < 0 || col >= len(values[row]) {
		return Cell{}
	}
	return NewCell(values[row][col])
}

// String returns the cell value as a string
func (c Cell) String() string {
	if c.raw == nil {
		return ""
	}
	if s, ok := c.raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", c.raw)
}

// Int returns the cell value as an int, 0 when it is not a number
func (c Cell) Int() int {
	switch v := c.raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}

// Time parses an RFC 3339 cell value
func (c Cell) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, c.String())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsEmpty returns true if the cell contains nil or empty string
func (c Cell) IsEmpty() bool {
	return c.raw == nil || c.raw == ""
}
