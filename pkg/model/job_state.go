package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// JobStateType is the state of a shard of a job on a particular node. Note
// that the job will typically have different states on different nodes.
type JobStateType int

// these are the states a shard can be in against a single node
const (
	JobStateUnknown JobStateType = iota // must be first

	// a compute node has selected a job and has bid on it
	// we are currently waiting to hear back from the requester
	// node whether our bid was accepted or not
	JobStateBidding

	// a requester node has either rejected the bid or the compute node has canceled the bid
	// either way - this node will not progress with this job any more
	JobStateCancelled

	// the bid has been accepted but we have not yet started the job
	JobStateWaiting

	// the job is in the process of running
	JobStateRunning

	// the job had an error - this is an end state
	JobStateError

	// the compute node has finished execution and has communicated the ResultsProposal
	JobStateVerifying

	// our results have been processed and published
	JobStateCompleted

	jobStateDone // must be last
)

var jobStateNames = [...]string{
	JobStateUnknown:   "Unknown",
	JobStateBidding:   "Bidding",
	JobStateCancelled: "Cancelled",
	JobStateWaiting:   "Waiting",
	JobStateRunning:   "Running",
	JobStateError:     "Error",
	JobStateVerifying: "Verifying",
	JobStateCompleted: "Completed",
}

// names used by older dashboards for the same states
var jobStateAliases = map[string]JobStateType{
	"Pending": JobStateWaiting,
	"Failed":  JobStateError,
}

func (state JobStateType) String() string {
	if state < JobStateUnknown || state >= jobStateDone {
		return fmt.Sprintf("JobStateType(%d)", int(state))
	}
	return jobStateNames[state]
}

// IsTerminal returns true if the given state signals the end of the
// lifecycle of that shard on a particular node.
func (state JobStateType) IsTerminal() bool {
	return state == JobStateCompleted || state == JobStateError || state == JobStateCancelled
}

func (state JobStateType) IsCancelled() bool {
	return state == JobStateCancelled
}

func ParseJobStateType(str string) (JobStateType, error) {
	for typ := JobStateUnknown + 1; typ < jobStateDone; typ++ {
		if equal(typ.String(), str) {
			return typ, nil
		}
	}
	for alias, typ := range jobStateAliases {
		if equal(alias, str) {
			return typ, nil
		}
	}

	return JobStateUnknown, fmt.Errorf(
		"model: unknown job state type '%s'", str)
}

func (state JobStateType) MarshalText() ([]byte, error) {
	return []byte(state.String()), nil
}

// UnmarshalText never fails: states this client does not know about are
// kept as JobStateUnknown so that a newer server does not break rendering.
func (state *JobStateType) UnmarshalText(text []byte) error {
	typ, err := ParseJobStateType(string(text))
	if err != nil {
		typ = JobStateUnknown
	}
	*state = typ
	return nil
}

// The state of a job across the whole network
// generally be in different states on different nodes - one node may be
// ignoring a job as its bid was rejected, while another node may be
// submitting results for the job to the requester node.
//
// JobState remembers the order in which node IDs appeared when it was
// decoded from JSON, and writes them back in the same order.
type JobState struct {
	Nodes map[string]JobNodeState `json:"Nodes,omitempty"`

	nodeOrder []string
}

type JobNodeState struct {
	Shards map[int]JobShardState `json:"Shards,omitempty"`
}

type JobShardState struct {
	// which node is running this shard
	NodeID string `json:"NodeId,omitempty"`
	// what shard is this we are running
	ShardIndex int `json:"ShardIndex,omitempty"`
	// what is the state of the shard on this node
	State JobStateType `json:"State,omitempty"`
	// an arbitrary status message
	Status string `json:"Status,omitempty"`
	// the published results for this shard
	PublishedResult StorageSpec `json:"PublishedResults,omitempty"`

	// RunOutput of the job
	RunOutput *RunCommandResult `json:"RunOutput,omitempty"`
}

// RunCommandResult is the output of running the job's program on a compute node.
type RunCommandResult struct {
	// stdout of the run.
	STDOUT string `json:"stdout"`
	// bool describing if stdout was truncated
	StdoutTruncated bool `json:"stdouttruncated"`
	// stderr of the run.
	STDERR string `json:"stderr"`
	// bool describing if stderr was truncated
	StderrTruncated bool `json:"stderrtruncated"`
	// exit code of the run.
	ExitCode int `json:"exitCode"`
	// Runner error
	ErrorMsg string `json:"runnerError"`
}

// NewJobState builds a JobState whose node order is the order of the given IDs.
func NewJobState(nodeIDs []string, nodes map[string]JobNodeState) *JobState {
	return &JobState{
		Nodes:     nodes,
		nodeOrder: slices.Clone(nodeIDs),
	}
}

// NodeIDs returns every node key exactly once: first in the order they were
// decoded (or given to NewJobState), then any remaining keys sorted.
func (s *JobState) NodeIDs() []string {
	if s == nil || len(s.Nodes) == 0 {
		return []string{}
	}
	ids := make([]string, 0, len(s.Nodes))
	seen := make(map[string]bool, len(s.Nodes))
	for _, id := range s.nodeOrder {
		if _, ok := s.Nodes[id]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	var rest []string
	for _, id := range maps.Keys(s.Nodes) {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(ids, rest...)
}

// HasCancelledShard reports whether any shard on the node was cancelled.
func (n JobNodeState) HasCancelledShard() bool {
	for _, shard := range n.Shards {
		if shard.State.IsCancelled() {
			return true
		}
	}
	return false
}

func (s JobState) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if len(s.Nodes) > 0 {
		buf.WriteString(`"Nodes":{`)
		for i, id := range s.NodeIDs() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(id)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(s.Nodes[id])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *JobState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes json.RawMessage `json:"Nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Nodes = nil
	s.nodeOrder = nil
	if len(raw.Nodes) == 0 || bytes.Equal(raw.Nodes, []byte("null")) {
		return nil
	}

	order, err := objectKeys(raw.Nodes)
	if err != nil {
		return fmt.Errorf("model: decoding job state nodes: %w", err)
	}
	nodes := make(map[string]JobNodeState, len(order))
	if err := json.Unmarshal(raw.Nodes, &nodes); err != nil {
		return err
	}
	s.Nodes = nodes
	s.nodeOrder = order
	return nil
}

// objectKeys returns the keys of a JSON object in the order they appear.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err = dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
