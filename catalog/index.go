package catalog

import (
	"errors"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/jonwraymond/courtlistener/schema"
)

// ErrClosed is returned by Search after Close.
var ErrClosed = errors.New("catalog index closed")

// Doc is one searchable endpoint.
type Doc struct {
	ID          string
	Name        string
	Path        string
	Description string
	Fields      []string
	// Text is the concatenated field descriptions.
	Text string
}

// Hit is a ranked search result.
type Hit struct {
	ID          string
	Name        string
	Path        string
	Description string
	Score       float64
}

// Docs builds one document per endpoint of r, in id order.
func Docs(r *schema.Registry) []Doc {
	endpoints := r.Endpoints()
	docs := make([]Doc, 0, len(endpoints))
	for _, e := range endpoints {
		var text []string
		for _, f := range e.Fields {
			if f.Description != "" {
				text = append(text, f.Description)
			}
		}
		docs = append(docs, Doc{
			ID:          e.ID,
			Name:        e.Name,
			Path:        e.Path,
			Description: e.Description,
			Fields:      e.FieldNames(),
			Text:        strings.Join(text, "\n"),
		})
	}
	return docs
}

// Config tunes ranking. Zero values select the defaults.
type Config struct {
	NameBoost        float64
	IDBoost          float64
	DescriptionBoost float64
	FieldsBoost      float64
	// MaxDocs limits the number of documents indexed (0 = unlimited).
	MaxDocs int
	// MaxDocTextLen truncates Doc.Text (0 = unlimited).
	MaxDocTextLen int
}

func (c Config) withDefaults() Config {
	if c.NameBoost == 0 {
		c.NameBoost = 3
	}
	if c.IDBoost == 0 {
		c.IDBoost = 2
	}
	if c.DescriptionBoost == 0 {
		c.DescriptionBoost = 1.5
	}
	if c.FieldsBoost == 0 {
		c.FieldsBoost = 1
	}
	return c
}

// Index is a lazily built Bleve index over catalog documents.
type Index struct {
	cfg Config

	mu          sync.RWMutex
	idx         bleve.Index
	fingerprint string
	docs        map[string]Doc
	order       []string
	closed      bool
}

// New returns an empty index.
func New(cfg Config) *Index {
	return &Index{cfg: cfg.withDefaults()}
}

// Search ranks docs against text and returns at most limit hits. The Bleve
// index is rebuilt when docs differ from the previous call.
func (x *Index) Search(text string, limit int, docs []Doc) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	if x.cfg.MaxDocs > 0 && len(docs) > x.cfg.MaxDocs {
		docs = docs[:x.cfg.MaxDocs]
	}
	if err := x.ensure(docs); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, ErrClosed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		n := min(limit, len(x.order))
		hits := make([]Hit, 0, n)
		for _, id := range x.order[:n] {
			hits = append(hits, x.hit(id, 0))
		}
		return hits, nil
	}

	req := bleve.NewSearchRequestOptions(x.query(text), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, m := range res.Hits {
		hits = append(hits, x.hit(m.ID, m.Score))
	}
	return hits, nil
}

func (x *Index) hit(id string, score float64) Hit {
	d := x.docs[id]
	return Hit{ID: d.ID, Name: d.Name, Path: d.Path, Description: d.Description, Score: score}
}

func (x *Index) query(text string) query.Query {
	match := func(field string, boost float64) query.Query {
		q := bleve.NewMatchQuery(text)
		q.SetField(field)
		q.SetBoost(boost)
		return q
	}
	return bleve.NewDisjunctionQuery(
		match("name", x.cfg.NameBoost),
		match("id", x.cfg.IDBoost),
		match("description", x.cfg.DescriptionBoost),
		match("fields", x.cfg.FieldsBoost),
		match("text", 1),
	)
}

func (x *Index) ensure(docs []Doc) error {
	fp := computeFingerprint(docs)

	x.mu.RLock()
	current := x.idx != nil && x.fingerprint == fp
	closed := x.closed
	x.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if current {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return ErrClosed
	}
	if x.idx != nil && x.fingerprint == fp {
		return nil
	}

	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = en.AnalyzerName
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return err
	}

	byID := make(map[string]Doc, len(docs))
	order := make([]string, 0, len(docs))
	batch := idx.NewBatch()
	for _, d := range docs {
		if _, dup := byID[d.ID]; dup {
			continue
		}
		body := d.Text
		if x.cfg.MaxDocTextLen > 0 && len(body) > x.cfg.MaxDocTextLen {
			body = body[:x.cfg.MaxDocTextLen]
		}
		if err := batch.Index(d.ID, map[string]any{
			"id":          strings.NewReplacer("-", " ", "/", " ").Replace(d.ID),
			"name":        d.Name,
			"description": d.Description,
			"fields":      strings.ReplaceAll(strings.Join(d.Fields, " "), "_", " "),
			"text":        body,
		}); err != nil {
			_ = idx.Close()
			return err
		}
		byID[d.ID] = d
		order = append(order, d.ID)
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return err
	}

	if x.idx != nil {
		_ = x.idx.Close()
	}
	x.idx, x.fingerprint, x.docs, x.order = idx, fp, byID, order
	return nil
}

// Close releases the Bleve index. Search fails afterwards.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	return err
}
