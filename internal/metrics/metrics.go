package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// In-process registry exported in Prometheus text format. Only counters and
// count/sum summaries; enough for the ops endpoint without a client library.

type labelsKey string

func makeKey(lbls map[string]string) labelsKey {
	if len(lbls) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbls))
	for k := range lbls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, lbls[k])
	}
	return labelsKey(b.String())
}

type collector interface {
	write(w io.Writer)
}

type CounterVec struct {
	Name string
	Help string

	mu     sync.RWMutex
	values map[labelsKey]float64
}

func NewCounterVec(name, help string) *CounterVec {
	return &CounterVec{Name: name, Help: help, values: make(map[labelsKey]float64)}
}

func (cv *CounterVec) Inc(lbls map[string]string) {
	key := makeKey(lbls)
	cv.mu.Lock()
	cv.values[key]++
	cv.mu.Unlock()
}

// Value returns the current counter value for lbls.
func (cv *CounterVec) Value(lbls map[string]string) float64 {
	key := makeKey(lbls)
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.values[key]
}

func (cv *CounterVec) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", cv.Name, cv.Help)
	fmt.Fprintf(w, "# TYPE %s counter\n", cv.Name)
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	for _, key := range sortedKeys(cv.values) {
		fmt.Fprintf(w, "%s %g\n", series(cv.Name, key), cv.values[key])
	}
}

// SummaryVec keeps count and sum per label set, exported as name_count and
// name_sum.
type SummaryVec struct {
	Name string
	Help string

	mu    sync.RWMutex
	count map[labelsKey]float64
	sum   map[labelsKey]float64
}

func NewSummaryVec(name, help string) *SummaryVec {
	return &SummaryVec{Name: name, Help: help, count: make(map[labelsKey]float64), sum: make(map[labelsKey]float64)}
}

func (sv *SummaryVec) Observe(lbls map[string]string, v float64) {
	key := makeKey(lbls)
	sv.mu.Lock()
	sv.count[key]++
	sv.sum[key] += v
	sv.mu.Unlock()
}

// Count returns how many observations were recorded for lbls.
func (sv *SummaryVec) Count(lbls map[string]string) float64 {
	key := makeKey(lbls)
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return sv.count[key]
}

func (sv *SummaryVec) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", sv.Name, sv.Help)
	fmt.Fprintf(w, "# TYPE %s summary\n", sv.Name)
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	for _, key := range sortedKeys(sv.count) {
		fmt.Fprintf(w, "%s %g\n", series(sv.Name+"_sum", key), sv.sum[key])
		fmt.Fprintf(w, "%s %g\n", series(sv.Name+"_count", key), sv.count[key])
	}
}

func series(name string, key labelsKey) string {
	if key == "" {
		return name
	}
	return name + "{" + string(key) + "}"
}

func sortedKeys(m map[labelsKey]float64) []labelsKey {
	keys := make([]labelsKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var (
	HTTPRequests = NewCounterVec("wfx_http_requests_total", "Ops HTTP requests by path and status")

	// outcome is one of ok|transport|status|decode|error
	BackendCalls = NewCounterVec("wfx_backend_calls_total", "Outbound backend calls")
	BackendDur   = NewSummaryVec("wfx_backend_call_seconds", "Outbound backend call duration seconds")

	// outcome is ok|failed
	Commands   = NewCounterVec("wfx_commands_total", "Slash command invocations")
	CommandDur = NewSummaryVec("wfx_command_seconds", "Slash command duration seconds")

	all = []collector{HTTPRequests, BackendCalls, BackendDur, Commands, CommandDur}
)

// ServeHTTP exposes all metrics in Prometheus text format.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	for _, c := range all {
		c.write(w)
	}
}
