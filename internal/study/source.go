package study

import "time"

// SourceFile records the provenance of one ingested data file: where
// it came from, what kind of data it held, and which saved tables it
// produced.
type SourceFile struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Kind    string    `json:"kind"`
	Tables  []string  `json:"tables"`
	Rows    int       `json:"rows"`
	AddedAt time.Time `json:"added_at"`
}
