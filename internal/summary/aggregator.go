// Package summary collects per-device outcomes for one fleet run and renders
// the deduplicated pass/fail report printed at the end of the run.
package summary

import (
	"sort"
	"strings"
	"sync"
)

// Recorder accepts the outcome of one operation against one device.
// The Aggregator implements it; transfer, shell and calibration components depend
// only on this interface.
type Recorder interface {
	Record(deviceID, exitCode int, output string)
}

// Outcome is the normalized result of one executed operation.
type Outcome struct {
	DeviceID int
	ExitCode int
	Text     string
}

// Success returns true if the operation exited 0.
func (o Outcome) Success() bool {
	return o.ExitCode == 0
}

// NewOutcome normalizes output into an Outcome.
func NewOutcome(deviceID, exitCode int, output string) Outcome {
	return Outcome{
		DeviceID: deviceID,
		ExitCode: exitCode,
		Text:     Normalize(output),
	}
}

// lineEndings strips CRLF first so a lone CR or LF left behind is removed too.
var lineEndings = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// Normalize removes every line terminator from output. The result is the grouping key.
func Normalize(output string) string {
	return lineEndings.Replace(output)
}

type idSet map[int]struct{}

// Aggregator groups device ids by outcome class and normalized output text.
// One Aggregator lives for one run and is shared by every worker; Record is safe
// for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	successes map[string]idSet
	failures  map[string]idSet
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		successes: make(map[string]idSet),
		failures:  make(map[string]idSet),
	}
}

// Record implements Recorder.
func (a *Aggregator) Record(deviceID, exitCode int, output string) {
	a.Add(NewOutcome(deviceID, exitCode, output))
}

// Add files an already-normalized outcome.
func (a *Aggregator) Add(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buckets := a.successes
	if !o.Success() {
		buckets = a.failures
	}
	set, ok := buckets[o.Text]
	if !ok {
		set = make(idSet)
		buckets[o.Text] = set
	}
	set[o.DeviceID] = struct{}{}
}

// FailureGroup is one failure text and the devices that produced it.
type FailureGroup struct {
	Text      string `yaml:"text"`
	DeviceIDs []int  `yaml:"devices"`
}

// Summary is a point-in-time snapshot of the aggregator.
type Summary struct {
	FailureCount int            `yaml:"failure_count"`
	Failures     []FailureGroup `yaml:"failures"`
	SuccessCount int            `yaml:"success_count"`
	Successes    []int          `yaml:"successes"`
}

// Summary snapshots the current state.
//
// Failures are grouped by text (sorted by text); FailureCount sums the distinct
// devices of every group, so a device failing with two different texts counts twice.
// Successes ignore text: the union of all successful devices, ascending.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	var s Summary

	texts := make([]string, 0, len(a.failures))
	for text := range a.failures {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	for _, text := range texts {
		ids := sortedIDs(a.failures[text])
		s.Failures = append(s.Failures, FailureGroup{Text: text, DeviceIDs: ids})
		s.FailureCount += len(ids)
	}

	union := make(idSet)
	for _, set := range a.successes {
		for id := range set {
			union[id] = struct{}{}
		}
	}
	s.Successes = sortedIDs(union)
	s.SuccessCount = len(s.Successes)

	return s
}

func sortedIDs(set idSet) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
