package vectorindex

// Builder decides which Index implementation backs a request, per spec
// §4.5: exact scan by default, HNSW once useHNSW is set and the corpus
// grows past hnswThreshold. Index build happens after every chunk has been
// embedded, so the final size is known up front.
type Builder struct {
	UseHNSW       bool
	HNSWThreshold int
}

// New picks an Index for a corpus of the given expected size.
func (b Builder) New(expectedSize int) Index {
	if b.UseHNSW && expectedSize > b.HNSWThreshold {
		return NewHNSW(0, 0)
	}
	return NewExact()
}
