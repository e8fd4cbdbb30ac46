package extract

// Stats contains statistics from an extraction run.
type Stats struct {
	// Processed is the number of members successfully written to the sink.
	Processed int

	// Skipped is the number of members skipped (ShouldProcess returned false).
	Skipped int

	// TotalBytes is the sum of payload sizes for all processed members.
	TotalBytes uint64
}

// add accumulates stats from another Stats into this one.
func (s *Stats) add(other Stats) {
	s.Processed += other.Processed
	s.Skipped += other.Skipped
	s.TotalBytes += other.TotalBytes
}
