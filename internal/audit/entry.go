package audit

import "time"

// Entry is one executed pipeline in the audit log.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Session  string    `json:"session"`
	Line     string    `json:"line"`            // the command line as typed
	Stages   []string  `json:"stages"`          // program of each stage
	Status   []int     `json:"status"`          // exit status per stage, -1 if not run
	Error    string    `json:"error,omitempty"` // syntax or resource error, if any
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`  // working directory after the line ran
	Hash     string    `json:"hash"` // SHA-256 of this entry (with hash field empty)
}

// Record is what the shell knows about a line once it has finished.
type Record struct {
	Line     string
	Stages   []string
	Status   []int
	Err      error
	Duration time.Duration
	Cwd      string
}
