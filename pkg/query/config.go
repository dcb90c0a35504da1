package query

const (
	DefaultPerPage            = 20
	DefaultInstitutionPerPage = 10
	DefaultBatchPerPage       = 19
	DefaultMapLimit           = 100
	DefaultMinAuthors         = 5
)

// Config carries the tunables of a Dispatcher. Zero values select the
// defaults above.
type Config struct {
	PerPage            int
	InstitutionPerPage int
	BatchPerPage       int

	// MapLimit bounds the coordinates returned for a topic search.
	MapLimit int

	// BatchParallelism bounds concurrent entry resolutions of batch shapes.
	// 1 resolves entries sequentially.
	BatchParallelism int
}

func (c Config) withDefaults() Config {
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
	if c.InstitutionPerPage <= 0 {
		c.InstitutionPerPage = DefaultInstitutionPerPage
	}
	if c.BatchPerPage <= 0 {
		c.BatchPerPage = DefaultBatchPerPage
	}
	if c.MapLimit <= 0 {
		c.MapLimit = DefaultMapLimit
	}
	if c.BatchParallelism <= 0 {
		c.BatchParallelism = 1
	}
	return c
}

func (c Config) perPage(shape Shape) int {
	switch shape {
	case ShapeInstitution:
		return c.InstitutionPerPage
	case ShapeBatchResearchers, ShapeBatchInstitutions:
		return c.BatchPerPage
	default:
		return c.PerPage
	}
}

// FederationConfig carries the tunables of the federation resolver.
type FederationConfig struct {
	// MinAuthors is the exclusive lower bound of authors a subfield needs
	// to be listed for an institution.
	MinAuthors int

	// KnownInstitutions restricts the topic scan to these names when set.
	KnownInstitutions []string
}
