package graph

import "github.com/collabnext/backend/pkg/common"

// EdgeID derives the id of the edge from start to end. Identical relations
// therefore always carry identical ids.
func EdgeID(start, end string) string {
	return start + "-" + end
}

// NumberID derives the id of the NUMBER pseudo-entity that renders count for
// parent. The parent is part of the id so that two parents sharing a count
// never collapse onto one node.
func NumberID(parent string, count float64) string {
	return parent + ":" + common.FormatCount(count)
}

// NewRelation links start to end with label.
func NewRelation(start, end common.Entity, label string) common.Relation {
	return common.Relation{
		ID:        EdgeID(start.ID, end.ID),
		Start:     start.ID,
		End:       end.ID,
		Label:     label,
		StartType: start.Type,
		EndType:   end.Type,
	}
}

// NumberNode returns the NUMBER entity for count under parent.
func NumberNode(parent string, count float64) common.Entity {
	return common.Entity{
		ID:    NumberID(parent, count),
		Label: common.FormatCount(count),
		Type:  common.EntityNumber,
	}
}
