package engine

import "fmt"

// DetectorError aborts RunAnalysis. Index is the detector's position in the
// configured order.
type DetectorError struct {
	Detector string
	Index    int
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s (#%d) failed: %v", e.Detector, e.Index, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}
