package engine

import "sync"

// Progress is a generation checkpoint delivered to the Options.OnProgress
// callback. Percentage never decreases and exactly one event per run carries
// Completed.
type Progress struct {
	Percentage int
	Message    string
	Completed  bool
	HasError   bool
}

type progressReporter struct {
	mu        sync.Mutex
	callback  func(Progress)
	last      int
	completed bool
}

func newProgressReporter(callback func(Progress)) *progressReporter {
	return &progressReporter{callback: callback}
}

func (r *progressReporter) report(percentage int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed || r.callback == nil {
		return
	}
	if percentage < r.last {
		percentage = r.last
	}
	r.last = percentage
	r.callback(Progress{Percentage: percentage, Message: message})
}

func (r *progressReporter) complete(message string, hasError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed || r.callback == nil {
		r.completed = true
		return
	}
	r.completed = true
	r.last = 100
	r.callback(Progress{Percentage: 100, Message: message, Completed: true, HasError: hasError})
}
