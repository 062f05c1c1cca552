// Package testing provides test doubles for the exec package.
package testing

import (
	"strings"
	"sync"
)

// Result is a scripted runner response.
type Result struct {
	ExitCode int
	Output   string
	Err      error
}

// FakeRunner records every command and answers from a script instead of a shell.
type FakeRunner struct {
	mu sync.Mutex

	// Default is returned when no scripted rule matches.
	Default Result
	rules   []rule

	// Call tracking
	Commands []string
}

type rule struct {
	substr string
	result Result
}

// NewFakeRunner creates a runner that reports exit 0 and empty output for every command.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On scripts the result for commands containing substr. Earlier rules win.
func (f *FakeRunner) On(substr string, result Result) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{substr: substr, result: result})
	return f
}

// Run implements exec.Runner.
func (f *FakeRunner) Run(command string) (int, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Commands = append(f.Commands, command)
	for _, r := range f.rules {
		if strings.Contains(command, r.substr) {
			return r.result.ExitCode, r.result.Output, r.result.Err
		}
	}
	return f.Default.ExitCode, f.Default.Output, f.Default.Err
}

// CallCount returns the number of commands run.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Commands)
}

// LastCommand returns the most recent command, or "" if none ran.
func (f *FakeRunner) LastCommand() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Commands) == 0 {
		return ""
	}
	return f.Commands[len(f.Commands)-1]
}

// Record is one captured Recorder call.
type Record struct {
	DeviceID int
	ExitCode int
	Output   string
}

// FakeRecorder captures outcomes in call order.
type FakeRecorder struct {
	mu      sync.Mutex
	Records []Record
}

// Record implements summary.Recorder.
func (f *FakeRecorder) Record(deviceID, exitCode int, output string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append(f.Records, Record{DeviceID: deviceID, ExitCode: exitCode, Output: output})
}

// DeviceIDs returns the recorded device ids in call order.
func (f *FakeRecorder) DeviceIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, len(f.Records))
	for i, r := range f.Records {
		ids[i] = r.DeviceID
	}
	return ids
}
