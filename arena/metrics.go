package arena

// SizeInUse returns the bytes handed out since the last Reset, including
// alignment padding.
func (a *Arena) SizeInUse() int {
	sum := 0
	for _, c := range a.chunks {
		sum += c.offset
	}
	return sum
}

// NumChunks returns the number of chunks owned by the arena.
func (a *Arena) NumChunks() int {
	return len(a.chunks)
}

// Capacity returns the total size of all chunks.
func (a *Arena) Capacity() int {
	sum := 0
	for _, c := range a.chunks {
		sum += len(c.buf)
	}
	return sum
}

// Utilization returns SizeInUse / Capacity, or 0 for an empty arena.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// ChunkSize returns the default chunk size used by this arena.
func (a *Arena) ChunkSize() int {
	return a.chunkSize
}

// Metrics is a snapshot of arena statistics.
type Metrics struct {
	SizeInUse   int
	Capacity    int
	NumChunks   int
	ChunkSize   int
	Generation  uint32
	Utilization float64
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	return Metrics{
		SizeInUse:   a.SizeInUse(),
		Capacity:    a.Capacity(),
		NumChunks:   a.NumChunks(),
		ChunkSize:   a.chunkSize,
		Generation:  a.gen,
		Utilization: a.Utilization(),
	}
}
