package openalex

// Ref is a minimal reference to another OpenAlex entity.
type Ref struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TopicCount is one entry of an entity's topic aggregate.
type TopicCount struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Count       float64 `json:"count"`
	Subfield    Ref     `json:"subfield"`
	Field       Ref     `json:"field"`
	Domain      Ref     `json:"domain"`
}

type Author struct {
	ID                    string       `json:"id"`
	DisplayName           string       `json:"display_name"`
	ORCID                 string       `json:"orcid"`
	WorksCount            float64      `json:"works_count"`
	CitedByCount          float64      `json:"cited_by_count"`
	Topics                []TopicCount `json:"topics"`
	LastKnownInstitutions []Ref        `json:"last_known_institutions"`
}

type Institution struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	ROR          string       `json:"ror"`
	HomepageURL  string       `json:"homepage_url"`
	WorksCount   float64      `json:"works_count"`
	CitedByCount float64      `json:"cited_by_count"`
	Topics       []TopicCount `json:"topics"`
}

type listMeta struct {
	Count      int     `json:"count"`
	NextCursor *string `json:"next_cursor"`
}

type listPage[T any] struct {
	Meta    listMeta `json:"meta"`
	Results []T      `json:"results"`
}
