package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/storage"
)

// DefaultPrefix is the file name prefix of local project documents.
const DefaultPrefix = "PORTFOLIO"

const templateMarker = "TEMPLATE"

// Dir serves documents from one local directory. Files are named
// <prefix>-<id>.md; names containing TEMPLATE are ignored.
type Dir struct {
	name   string
	store  storage.Provider
	path   string
	prefix string
	owner  string
	logger *slog.Logger
}

// DirOption configures a Dir.
type DirOption func(*Dir)

// WithPrefix overrides the file name prefix.
func WithPrefix(prefix string) DirOption {
	return func(d *Dir) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithOwner sets the account used to build repository URLs.
func WithOwner(owner string) DirOption {
	return func(d *Dir) { d.owner = owner }
}

// WithDirLogger sets the logger for collision warnings.
func WithDirLogger(l *slog.Logger) DirOption {
	return func(d *Dir) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDir creates a directory source. A missing directory serves nothing.
func NewDir(name string, store storage.Provider, path string, opts ...DirOption) *Dir {
	d := &Dir{
		name:   name,
		store:  store,
		path:   path,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dir) Name() string { return d.name }

// Path returns the directory relative to the storage root.
func (d *Dir) Path() string { return d.path }

// Projects lists identifiers in lexical file order.
func (d *Dir) Projects(_ context.Context) ([]string, error) {
	files, err := d.scan()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.id] {
			continue
		}
		seen[f.id] = true
		ids = append(ids, f.id)
	}
	return ids, nil
}

// Fetch reads the document for id. When several files map to the same
// identifier the last one in lexical order wins.
func (d *Dir) Fetch(_ context.Context, id string) (*Document, error) {
	files, err := d.scan()
	if err != nil {
		return nil, err
	}
	var match *dirFile
	for i := range files {
		if files[i].id == id {
			match = &files[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("source %s: %s: %w", d.name, id, apperr.ErrNotFound)
	}
	data, err := d.store.Read(match.meta.Path)
	if err != nil {
		return nil, &apperr.TransportError{Op: "source " + d.name + ": read " + match.meta.Path, Err: err}
	}
	return &Document{
		ProjectID: id,
		Source:    d.name,
		Content:   data,
		RepoName:  id,
		RepoURL:   RepoURL(d.owner, id),
		Provenance: models.Provenance{
			GitHubUpdatedAt: match.meta.UpdatedAt.UTC().Format(time.RFC3339),
			GitHubTopics:    []string{},
		},
	}, nil
}

type dirFile struct {
	id   string
	meta models.FileMeta
}

func (d *Dir) scan() ([]dirFile, error) {
	metas, err := d.store.List(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperr.TransportError{Op: "source " + d.name + ": list " + d.path, Err: err}
	}

	var out []dirFile
	owner := make(map[string]string)
	for _, m := range metas {
		if !strings.HasPrefix(m.Name, d.prefix) || strings.Contains(m.Name, templateMarker) {
			continue
		}
		id := IdentifierFromFile(m.Name, d.prefix)
		if prev, ok := owner[id]; ok {
			d.logger.Warn("duplicate local document identifier",
				slog.String("source", d.name),
				slog.String("id", id),
				slog.String("ignored", prev),
				slog.String("used", m.Name),
			)
		}
		owner[id] = m.Name
		out = append(out, dirFile{id: id, meta: m})
	}
	return out, nil
}

// IdentifierFromFile derives a project identifier from a document file
// name: the prefix, an optional dash and the .md extension are stripped.
// A name that strips to nothing is used whole.
func IdentifierFromFile(name, prefix string) string {
	id := strings.TrimPrefix(name, prefix)
	id = strings.TrimPrefix(id, "-")
	id = strings.TrimSuffix(id, ".md")
	if id == "" {
		return name
	}
	return id
}

// FileName is the inverse of IdentifierFromFile.
func FileName(prefix, id string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "-" + id + ".md"
}
