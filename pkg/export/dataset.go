package export

import "fmt"

// Dataset is a titled table ready for rendering. Rows hold values in header order.
type Dataset struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

// validate rejects headerless datasets and rows wider than the header.
func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	for i, row := range d.Rows {
		if len(row) > len(d.Headers) {
			return fmt.Errorf("%s row %d has %d values for %d headers", format, i+1, len(row), len(d.Headers))
		}
	}
	return nil
}

// row returns row i padded to the header width.
func (d Dataset) row(i int) []string {
	row := d.Rows[i]
	if len(row) == len(d.Headers) {
		return row
	}
	padded := make([]string, len(d.Headers))
	copy(padded, row)
	return padded
}
