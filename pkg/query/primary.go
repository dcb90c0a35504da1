package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/collabnext/backend/pkg/common"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/store"
)

// PrimaryResolver looks a query up in the primary store.
type PrimaryResolver interface {
	Resolve(ctx context.Context, shape Shape, q Query) common.Outcome[*store.Record]
}

// StorePrimary resolves names to store ids and runs the stored search
// function of the shape.
type StorePrimary struct {
	store store.ResearchStore
	log   *logger.Logger
}

func NewStorePrimary(s store.ResearchStore, log *logger.Logger) *StorePrimary {
	return &StorePrimary{store: s, log: log}
}

type searchPlan struct {
	fn          store.SearchFunc
	author      bool
	institution bool
	topic       bool
}

var searchPlans = map[Shape]searchPlan{
	ShapeResearcher:            {fn: store.SearchAuthor, author: true},
	ShapeInstitution:           {fn: store.SearchInstitution, institution: true},
	ShapeTopic:                 {fn: store.SearchTopic, topic: true},
	ShapeInstitutionResearcher: {fn: store.SearchAuthorInstitution, author: true, institution: true},
	ShapeInstitutionTopic:      {fn: store.SearchInstitutionTopic, institution: true, topic: true},
	ShapeResearcherTopic:       {fn: store.SearchAuthorTopic, author: true, topic: true},
	ShapeAllThree:              {fn: store.SearchAuthorInstitutionTopic, author: true, institution: true, topic: true},
}

func (p *StorePrimary) Resolve(ctx context.Context, shape Shape, q Query) common.Outcome[*store.Record] {
	plan, ok := searchPlans[shape]
	if !ok {
		return common.Failed[*store.Record](fmt.Errorf("no primary search for shape %s", shape))
	}

	var args []string
	if plan.author {
		id := q.AuthorID
		if id == "" {
			var err error
			if id, err = p.store.ResolveAuthorID(ctx, q.Researcher); err != nil {
				return p.outcome(err, "resolve author", q.Researcher)
			}
		}
		args = append(args, id)
	}
	if plan.institution {
		id := q.InstitutionID
		if id == "" {
			var err error
			if id, err = p.store.ResolveInstitutionID(ctx, q.Institution); err != nil {
				return p.outcome(err, "resolve institution", q.Institution)
			}
		}
		args = append(args, id)
	}
	if plan.topic {
		args = append(args, q.Topic)
	}

	rec, err := p.store.Search(ctx, plan.fn, args...)
	if err != nil {
		return p.outcome(err, string(plan.fn), "")
	}
	return common.Found(rec)
}

func (p *StorePrimary) outcome(err error, op, name string) common.Outcome[*store.Record] {
	if errors.Is(err, store.ErrNotFound) {
		p.log.Debug("Not found in primary store", "op", op, "name", name)
		return common.Absent[*store.Record]()
	}
	return common.Failed[*store.Record](common.External("primary-store", fmt.Errorf("%s: %w", op, err)))
}
