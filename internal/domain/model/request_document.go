package model

// RequestDocument is the on-disk shape of a request store.
//
// Invariants after Normalize: every id in Processed also appears in
// Requests, and an id appears in Processed at most once.
type RequestDocument struct {
	Requests  []Request `json:"requests"`
	Processed []Request `json:"processed"`
}

func EmptyRequestDocument() *RequestDocument {
	return &RequestDocument{Requests: []Request{}, Processed: []Request{}}
}

// Normalize drops entries that break the document invariants and reports
// whether anything changed.
func (d *RequestDocument) Normalize(wt WorkType) bool {
	changed := false
	if d.Requests == nil {
		d.Requests = []Request{}
		changed = true
	}
	if d.Processed == nil {
		d.Processed = []Request{}
		changed = true
	}

	known := make(map[string]struct{}, len(d.Requests))
	kept := d.Requests[:0]
	for _, r := range d.Requests {
		if !r.Valid(wt) {
			changed = true
			continue
		}
		known[r.ID] = struct{}{}
		kept = append(kept, r)
	}
	d.Requests = kept

	seen := make(map[string]struct{}, len(d.Processed))
	done := d.Processed[:0]
	for _, r := range d.Processed {
		if _, ok := known[r.ID]; !ok {
			changed = true
			continue
		}
		if _, dup := seen[r.ID]; dup {
			changed = true
			continue
		}
		seen[r.ID] = struct{}{}
		done = append(done, r)
	}
	d.Processed = done
	return changed
}

func (d *RequestDocument) processedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Processed))
	for _, r := range d.Processed {
		set[r.ID] = struct{}{}
	}
	return set
}

// Unprocessed returns requests not yet in Processed, in append order.
// A duplicated id is returned once.
func (d *RequestDocument) Unprocessed() []Request {
	done := d.processedSet()
	out := make([]Request, 0, len(d.Requests))
	for _, r := range d.Requests {
		if _, ok := done[r.ID]; ok {
			continue
		}
		done[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (d *RequestDocument) IsProcessed(id string) bool {
	for _, r := range d.Processed {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (d *RequestDocument) Contains(id string) bool {
	for _, r := range d.Requests {
		if r.ID == id {
			return true
		}
	}
	return false
}

// MarkProcessed appends req to Processed unless it is already there.
// It returns false when nothing was appended.
func (d *RequestDocument) MarkProcessed(req Request) bool {
	if d.IsProcessed(req.ID) {
		return false
	}
	d.Processed = append(d.Processed, req)
	return true
}
