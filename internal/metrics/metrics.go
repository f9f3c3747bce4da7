// Package metrics is the small backend-agnostic metrics surface used by the
// scraper. Backends live in subpackages; Nop is the default.
package metrics

import (
	"sort"
	"strings"
	"sync"
)

// Metric names emitted by the scraper and loader.
const (
	PagesTotal          = "scrape_pages_total"          // labels: status=ok|error
	RecordsTotal        = "scrape_records_total"        // labels: kind=page|profile
	RunDuration         = "scrape_run_duration_seconds" // no labels
	HTTPRequestsTotal   = "scrape_http_requests_total"  // labels: status
	HTTPRequestDuration = "scrape_http_request_duration_seconds"
	HTTPDownloadBytes   = "scrape_http_download_bytes"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric events. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }

// Recorder keeps metrics in memory. The CLI uses it for its end-of-run
// summary; tests use it to assert on emitted metrics.
type Recorder struct {
	mu       sync.Mutex
	counters map[string]float64
	samples  map[string][]float64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		counters: make(map[string]float64),
		samples:  make(map[string][]float64),
	}
}

func (r *Recorder) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key(name, labels)] += delta
}

func (r *Recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(name, labels)
	r.samples[k] = append(r.samples[k], value)
}

func (r *Recorder) Flush() error { return nil }

// Counter returns the accumulated value for name with exactly these labels.
func (r *Recorder) Counter(name string, labels Labels) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key(name, labels)]
}

// Samples returns a copy of the histogram samples for name with exactly these labels.
func (r *Recorder) Samples(name string, labels Labels) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.samples[key(name, labels)]...)
}

// Tee fans events out to every backend.
type Tee []Backend

func (t Tee) IncCounter(name string, delta float64, labels Labels) {
	for _, b := range t {
		b.IncCounter(name, delta, labels)
	}
}

func (t Tee) ObserveHistogram(name string, value float64, labels Labels) {
	for _, b := range t {
		b.ObserveHistogram(name, value, labels)
	}
}

// Flush flushes every backend and returns the first error.
func (t Tee) Flush() error {
	var first error
	for _, b := range t {
		if err := b.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// key renders name{k=v,...} with sorted label keys.
func key(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}
	ks := make([]string, 0, len(labels))
	for k := range labels {
		ks = append(ks, k)
	}
	sort.Strings(ks)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range ks {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

var (
	_ Backend = Nop{}
	_ Backend = (*Recorder)(nil)
	_ Backend = Tee(nil)
)
