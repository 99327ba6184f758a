package scheduler

import "slices"

// DefaultHistorySize is the number of recently shown cards a History keeps
const DefaultHistorySize = 10

// History is a bounded list of recently shown card ids, most recent first.
type History struct {
	size int
	ids  []string
}

// NewHistory returns a history keeping at most size ids.
// A size below one falls back to DefaultHistorySize.
func NewHistory(size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Push moves id to the front, dropping the oldest id when full
func (h *History) Push(id string) {
	if h == nil || id == "" {
		return
	}
	h.ids = slices.DeleteFunc(h.ids, func(v string) bool {
		return v == id
	})
	h.ids = slices.Insert(h.ids, 0, id)
	if len(h.ids) > h.size {
		h.ids = h.ids[:h.size]
	}
}

func (h *History) Contains(id string) bool {
	if h == nil {
		return false
	}
	return slices.Contains(h.ids, id)
}

// IDs returns a copy of the ids, most recent first
func (h *History) IDs() []string {
	if h == nil {
		return nil
	}
	return slices.Clone(h.ids)
}

// Size is the maximum number of ids kept
func (h *History) Size() int {
	if h == nil {
		return DefaultHistorySize
	}
	return h.size
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.ids)
}
