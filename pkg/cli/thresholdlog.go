package cli

import (
	"fmt"
	"io"
)

const thresholdLogHeader = "Threshold Log\n=============\n\n"

// Record is one processed image and the threshold chosen for it.
type Record struct {
	Name      string
	Threshold int
}

// ThresholdLog writes the plain-text per-image threshold log.
type ThresholdLog struct {
	w io.Writer
}

// NewThresholdLog writes the log header to w.
func NewThresholdLog(w io.Writer) (*ThresholdLog, error) {
	if _, err := io.WriteString(w, thresholdLogHeader); err != nil {
		return nil, fmt.Errorf("writing threshold log header: %w", err)
	}
	return &ThresholdLog{w: w}, nil
}

// Append adds one record.
func (l *ThresholdLog) Append(r Record) error {
	if _, err := fmt.Fprintf(l.w, "Image: %s\nThreshold: %d\n\n", r.Name, r.Threshold); err != nil {
		return fmt.Errorf("writing threshold log record for %s: %w", r.Name, err)
	}
	return nil
}
