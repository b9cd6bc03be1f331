package batch

// Progress receives run events. Calls happen on the run goroutine.
type Progress interface {
	// Progress reports that processed of total triplets are done; label
	// names the triplet just finished.
	Progress(processed, total int, label string)
	// Error reports a per-scene failure.
	Error(message string)
}

type nopProgress struct{}

func (nopProgress) Progress(int, int, string) {}
func (nopProgress) Error(string)              {}
