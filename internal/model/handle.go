package model

import "sync"

// Handle is a lazily-initialized, process-wide reference to a loaded
// classifier. The artifact is read at most once; every caller after that
// shares the same classifier (or the same load error).
type Handle struct {
	once   sync.Once
	path   string
	labels []string
	c      *Classifier
	err    error
}

// NewHandle prepares a handle without touching the filesystem.
func NewHandle(path string, fallbackLabels []string) *Handle {
	return &Handle{path: path, labels: fallbackLabels}
}

// Get loads the artifact on first use and returns the shared classifier.
func (h *Handle) Get() (*Classifier, error) {
	h.once.Do(func() {
		h.c, h.err = Load(h.path, h.labels)
	})
	return h.c, h.err
}
