package chapters

// Record identifies one chapter of the book.
type Record struct {
	ID      string
	Title   string
	Ordinal int
}

// Index is an ordered, immutable sequence of chapter records with
// strictly increasing ordinals.
type Index struct {
	source   string
	records  []Record
	position map[string]int
}

func newIndex(source string, records []Record) *Index {
	position := make(map[string]int, len(records))
	for i, r := range records {
		position[r.ID] = i
	}
	return &Index{source: source, records: records, position: position}
}

// Source returns the path the index was loaded from.
func (x *Index) Source() string { return x.source }

// Len returns the number of chapters.
func (x *Index) Len() int { return len(x.records) }

// At returns the record at zero-based position i.
func (x *Index) At(i int) Record { return x.records[i] }

// Records returns a copy of the records in ordinal order.
func (x *Index) Records() []Record {
	out := make([]Record, len(x.records))
	copy(out, x.records)
	return out
}

// IDs returns chapter ids in ordinal order.
func (x *Index) IDs() []string {
	ids := make([]string, len(x.records))
	for i, r := range x.records {
		ids[i] = r.ID
	}
	return ids
}

// Find returns the chapter whose id equals the page id.
func (x *Index) Find(pageID string) (Record, bool) {
	i, ok := x.position[pageID]
	if !ok {
		return Record{}, false
	}
	return x.records[i], true
}

// Neighbors returns the chapters before and after id. Either may be nil at
// the ends of the book. ok is false when id is not a chapter.
func (x *Index) Neighbors(id string) (prev, next *Record, ok bool) {
	i, found := x.position[id]
	if !found {
		return nil, nil, false
	}
	if i > 0 {
		p := x.records[i-1]
		prev = &p
	}
	if i < len(x.records)-1 {
		n := x.records[i+1]
		next = &n
	}
	return prev, next, true
}
