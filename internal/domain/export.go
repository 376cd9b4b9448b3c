package domain

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// WriteCSV writes detections as CSV with a header row, one row per detection
// and every raw and derived column. An empty set still produces the header.
func WriteCSV(w io.Writer, detections []Detection) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(detections) == 0 {
		if err := enc.EncodeHeader(Detection{}); err != nil {
			return fmt.Errorf("encode csv header: %w", err)
		}
	} else if err := enc.Encode(detections); err != nil {
		return fmt.Errorf("encode csv rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
