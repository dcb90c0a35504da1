package main

import (
	"context"
	"fmt"

	"github.com/collabnext/backend/internal/autofill"
	"github.com/collabnext/backend/internal/storage"
	"github.com/collabnext/backend/internal/topicspace"
	"github.com/collabnext/backend/internal/util"
	"github.com/collabnext/backend/pkg/logger"
)

type staticAssets struct {
	suggester    *autofill.Suggester
	defaultGraph topicspace.DefaultGraph
	topicSpace   *topicspace.Space
}

// loadAssets reads the autofill lists and the precomputed graphs. Every
// location is optional; a missing one leaves its feature empty.
func loadAssets(ctx context.Context, log *logger.Logger) (*staticAssets, error) {
	var getter storage.ObjectGetter
	if region := util.GetEnv("AWS_REGION"); region != "" {
		client, err := storage.NewS3Client(ctx, storage.S3Params{
			Region:    region,
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
		})
		if err != nil {
			return nil, err
		}
		getter = client
	}
	assets := storage.NewAssets(getter)

	read := func(key string) ([]byte, error) {
		location := util.GetEnv(key)
		if location == "" {
			log.Warn("Asset location not set", "var", key)
			return nil, nil
		}
		data, err := assets.Read(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return data, nil
	}

	out := &staticAssets{}

	institutions, err := read("AUTOFILL_INSTITUTIONS")
	if err != nil {
		return nil, err
	}
	subfields, err := read("AUTOFILL_SUBFIELDS")
	if err != nil {
		return nil, err
	}
	out.suggester = autofill.NewSuggester(
		autofill.Parse(string(institutions), ",\n"),
		autofill.Parse(string(subfields), "\n"),
	)

	raw, err := read("DEFAULT_GRAPH")
	if err != nil {
		return nil, err
	}
	if raw != nil {
		g, err := topicspace.ParseDefaultGraph(raw)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_GRAPH: %w", err)
		}
		out.defaultGraph = g.Strongest()
	}

	raw, err = read("TOPIC_SPACE_GRAPH")
	if err != nil {
		return nil, err
	}
	if raw != nil {
		space, err := topicspace.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("TOPIC_SPACE_GRAPH: %w", err)
		}
		out.topicSpace = space
	}

	log.Info("Loaded static assets",
		"institutions", len(out.suggester.KnownInstitutions()),
		"default_graph_nodes", len(out.defaultGraph.Nodes),
		"topic_space_topics", out.topicSpace.Len(),
	)
	return out, nil
}
