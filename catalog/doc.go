// Package catalog provides full-text search over the endpoint catalog.
//
// The schema registry knows every endpoint by id; an agent or a CLI user
// usually knows only what they are looking for ("oral arguments", "judge
// education"). [Index] answers that with a Bleve in-memory index over
// endpoint ids, names, descriptions and field names.
//
// # Usage
//
//	idx := catalog.New(catalog.Config{})
//	defer idx.Close()
//	hits, err := idx.Search("financial disclosures", 5, catalog.Docs(schema.Default()))
//
// # Configuration
//
// [Config] sets field boosts and safety limits:
//
//	cfg := catalog.Config{
//	    NameBoost:     3,    // default: 3
//	    IDBoost:       2,    // default: 2
//	    MaxDocTextLen: 5000, // truncate long field text (0 = unlimited)
//	}
//
// # Thread Safety
//
// Index is safe for concurrent use. The Bleve index is cached behind a
// fingerprint of the documents and rebuilt only when they change.
//
// # Behavior
//
// An empty query returns the first N documents in the order given. Other
// queries are ranked by score, then id.
package catalog
