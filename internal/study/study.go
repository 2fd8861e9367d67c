package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/karstfen/soilcn/internal/utils"
)

const (
	studyFileName = "study.json"
)

// Study represents a soil study workspace persisted on disk.
type Study struct {
	Name      string        `json:"name"`
	ID        string        `json:"id"`
	Sources   []*SourceFile `json:"sources"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Not serialized: on-disk location of the study.json
	rootDir string `json:"-"`
}

// NewStudy constructs an in-memory study. Call Save() to persist.
func NewStudy(name, rootDir string) *Study {
	return &Study{
		Name:      name,
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		rootDir:   rootDir,
	}
}

// LoadStudy loads a study.json from the provided directory.
func LoadStudy(dir string) (*Study, error) {
	path := filepath.Join(dir, studyFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("study not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read study: %w", err)
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse study: %w", err)
	}
	s.rootDir = dir
	return &s, nil
}

// RootDir returns the on-disk study directory path.
func (s *Study) RootDir() string { return s.rootDir }

// Save writes study.json using atomic write.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return errors.New("study root directory not set")
	}
	if err := utils.EnsureStudyDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, studyFileName), data)
}

// AddSource appends a provenance entry for an ingested file and
// returns it.
func (s *Study) AddSource(path, kind string, tables []string, rows int) *SourceFile {
	src := &SourceFile{
		ID:      uuid.NewString(),
		Path:    path,
		Kind:    kind,
		Tables:  append([]string{}, tables...),
		Rows:    rows,
		AddedAt: time.Now(),
	}
	s.Sources = append(s.Sources, src)
	s.UpdatedAt = time.Now()
	return src
}
