package jobview

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/CoopHive/bacalhau/pkg/model"
)

// NodeOrder returns the IDs of the nodes in state, with every node that has at
// least one cancelled shard moved after all nodes that have none. Inside each
// group nodes keep the order of the state's node mapping.
func NodeOrder(state *model.JobState) []string {
	if state == nil {
		return []string{}
	}
	var live, cancelled []string
	for _, nodeID := range state.NodeIDs() {
		if state.Nodes[nodeID].HasCancelledShard() {
			cancelled = append(cancelled, nodeID)
		} else {
			live = append(live, nodeID)
		}
	}
	return append(append(make([]string, 0, len(live)+len(cancelled)), live...), cancelled...)
}

// ShardIndices returns the node's shard indices in ascending order.
func ShardIndices(node model.JobNodeState) []int {
	indices := maps.Keys(node.Shards)
	slices.Sort(indices)
	return indices
}

// NodeCard is everything shown for one node of a job.
type NodeCard struct {
	NodeID    string     `json:"nodeId"`
	ShortID   string     `json:"shortId"`
	Cancelled bool       `json:"cancelled"`
	Shards    []ShardRow `json:"shards"`
}

// ShardRow is one shard of a NodeCard. RunOutput is only set once the shard
// has run; Outputs lists the job's output volumes next to the published result.
type ShardRow struct {
	Index           int                     `json:"index"`
	State           model.JobStateType      `json:"state"`
	Status          string                  `json:"status,omitempty"`
	RunOutput       *model.RunCommandResult `json:"runOutput,omitempty"`
	PublishedResult *model.StorageSpec      `json:"publishedResult,omitempty"`
	Outputs         []model.StorageSpec     `json:"outputs,omitempty"`
}

// HasStdout reports whether the shard produced anything on stdout.
func (r ShardRow) HasStdout() bool {
	return r.RunOutput != nil && r.RunOutput.STDOUT != ""
}

// HasStderr reports whether the shard produced anything on stderr.
func (r ShardRow) HasStderr() bool {
	return r.RunOutput != nil && r.RunOutput.STDERR != ""
}

// Nodes builds the node cards for a job in NodeOrder.
func Nodes(job *model.Job, state *model.JobState) []NodeCard {
	order := NodeOrder(state)
	cards := make([]NodeCard, 0, len(order))
	for _, nodeID := range order {
		node := state.Nodes[nodeID]
		card := NodeCard{
			NodeID:    nodeID,
			ShortID:   model.ShortID(nodeID),
			Cancelled: node.HasCancelledShard(),
		}
		for _, index := range ShardIndices(node) {
			card.Shards = append(card.Shards, shardRow(job, index, node.Shards[index]))
		}
		cards = append(cards, card)
	}
	return cards
}

func shardRow(job *model.Job, index int, shard model.JobShardState) ShardRow {
	row := ShardRow{
		Index:  index,
		State:  shard.State,
		Status: shard.Status,
	}
	if shard.RunOutput == nil {
		return row
	}
	row.RunOutput = shard.RunOutput
	if !shard.PublishedResult.IsEmpty() {
		published := shard.PublishedResult
		row.PublishedResult = &published
	}
	if job != nil {
		row.Outputs = job.Spec.Outputs
	}
	return row
}
