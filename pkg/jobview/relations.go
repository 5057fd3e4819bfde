package jobview

import (
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

// RelationGroups maps content identifiers to the job relations that share
// them. Keys iterate in the order they were first seen and each group keeps
// the order of its members.
type RelationGroups struct {
	keys   []string
	groups map[string][]types.JobRelation
}

// GroupByCID groups relations by CID. A nil or empty slice gives an empty
// mapping.
func GroupByCID(relations []types.JobRelation) RelationGroups {
	g := RelationGroups{groups: make(map[string][]types.JobRelation)}
	for _, relation := range relations {
		if _, ok := g.groups[relation.CID]; !ok {
			g.keys = append(g.keys, relation.CID)
		}
		g.groups[relation.CID] = append(g.groups[relation.CID], relation)
	}
	return g
}

// Keys returns the CIDs in first-seen order.
func (g RelationGroups) Keys() []string {
	return append([]string{}, g.keys...)
}

// Get returns the relations sharing cid, in input order.
func (g RelationGroups) Get(cid string) []types.JobRelation {
	return append([]types.JobRelation(nil), g.groups[cid]...)
}

// Len is the number of distinct CIDs.
func (g RelationGroups) Len() int {
	return len(g.keys)
}

// Total is the number of relations across all groups.
func (g RelationGroups) Total() int {
	total := 0
	for _, group := range g.groups {
		total += len(group)
	}
	return total
}

// Flatten returns every relation, group by group.
func (g RelationGroups) Flatten() []types.JobRelation {
	flat := make([]types.JobRelation, 0, g.Total())
	for _, key := range g.keys {
		flat = append(flat, g.groups[key]...)
	}
	return flat
}

// RelationGroup is one CID and its relations.
type RelationGroup struct {
	CID       string              `json:"cid"`
	Relations []types.JobRelation `json:"relations"`
}

// Groups returns the groups as an ordered slice.
func (g RelationGroups) Groups() []RelationGroup {
	out := make([]RelationGroup, 0, len(g.keys))
	for _, key := range g.keys {
		out = append(out, RelationGroup{CID: key, Relations: g.Get(key)})
	}
	return out
}

func (g RelationGroups) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Groups())
}

// DescribeCID renders a CID with its codec, e.g. "Qm... (dag-pb)". Strings
// that are not valid CIDs are returned as they are.
func DescribeCID(s string) string {
	c, err := cid.Decode(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s (%s)", s, multicodec.Code(c.Prefix().Codec).String())
}
