package dataset

import "sort"

// OneHotEncoder expands string columns into indicator columns. Category
// order is sorted per column, so the encoding is deterministic across runs.
type OneHotEncoder struct {
	categories [][]string
}

func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Fit records the distinct values of each column.
func (e *OneHotEncoder) Fit(rows [][]string) {
	if len(rows) == 0 {
		e.categories = nil
		return
	}
	width := len(rows[0])
	e.categories = make([][]string, width)
	for col := 0; col < width; col++ {
		seen := make(map[string]bool)
		for _, row := range rows {
			seen[row[col]] = true
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.categories[col] = cats
	}
}

// Transform encodes each row as concatenated indicator vectors. Values
// unseen during Fit encode as all zeros for that column.
func (e *OneHotEncoder) Transform(rows [][]string) [][]float64 {
	width := 0
	for _, cats := range e.categories {
		width += len(cats)
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		encoded := make([]float64, width)
		offset := 0
		for col, cats := range e.categories {
			for k, cat := range cats {
				if col < len(row) && row[col] == cat {
					encoded[offset+k] = 1.0
					break
				}
			}
			offset += len(cats)
		}
		out[i] = encoded
	}
	return out
}

// Width returns the number of output columns after Fit.
func (e *OneHotEncoder) Width() int {
	n := 0
	for _, cats := range e.categories {
		n += len(cats)
	}
	return n
}
