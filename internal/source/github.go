package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/models"
)

// GitHub defaults.
const (
	DefaultAPIBase      = "https://api.github.com"
	DefaultDocumentPath = "PORTFOLIO.md"
	DefaultMaxPages     = 10
	DefaultRetryWait    = 500 * time.Millisecond
	DefaultRawBase      = "https://raw.githubusercontent.com"

	perPage   = 100
	userAgent = "showcase-sync"
)

// GitHubConfig configures the remote source.
type GitHubConfig struct {
	APIBase      string
	RawBase      string
	Owner        string
	Token        string
	DocumentPath string
	MaxPages     int
	MaxRetries   uint
	// RetryWait is the first backoff interval. Zero uses DefaultRetryWait.
	RetryWait  time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Repo is the repository metadata the source attaches as provenance.
type Repo struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	HTMLURL       string   `json:"html_url"`
	Description   string   `json:"description"`
	Language      string   `json:"language"`
	Stars         int      `json:"stargazers_count"`
	Forks         int      `json:"forks_count"`
	UpdatedAt     string   `json:"updated_at"`
	CreatedAt     string   `json:"created_at"`
	Topics        []string `json:"topics"`
	Private       bool     `json:"private"`
	Fork          bool     `json:"fork"`
	Archived      bool     `json:"archived"`
	DefaultBranch string   `json:"default_branch"`
	Homepage      string   `json:"homepage"`
}

// Provenance converts repository metadata to the record's provenance.
func (r Repo) Provenance() models.Provenance {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return models.Provenance{
		GitHubStars:       r.Stars,
		GitHubForks:       r.Forks,
		GitHubLanguage:    r.Language,
		GitHubUpdatedAt:   r.UpdatedAt,
		GitHubDescription: r.Description,
		GitHubTopics:      append([]string(nil), topics...),
	}
}

// File is a repository file with the blob SHA required to replace it.
type File struct {
	Path    string
	SHA     string
	Content []byte
}

// GitHub serves one document per repository of an account.
type GitHub struct {
	cfg    GitHubConfig
	client *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	repos map[string]Repo
}

// NewGitHub creates a GitHub source. The token is attached to every
// request as a bearer credential.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	if cfg.Owner == "" {
		return nil, apperr.Configuration("github owner is required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.RawBase == "" {
		cfg.RawBase = DefaultRawBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.RawBase = strings.TrimRight(cfg.RawBase, "/")
	if cfg.DocumentPath == "" {
		cfg.DocumentPath = DefaultDocumentPath
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	client := base
	if cfg.Token != "" {
		client = &http.Client{
			Timeout: base.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
				Base:   base.Transport,
			},
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHub{cfg: cfg, client: client, logger: logger, repos: make(map[string]Repo)}, nil
}

func (g *GitHub) Name() string { return "github" }

// Owner returns the account whose repositories are served.
func (g *GitHub) Owner() string { return g.cfg.Owner }

// Client returns the authenticated HTTP client, for downloading assets.
func (g *GitHub) Client() *http.Client { return g.client }

// DocumentPath returns the in-repository path of project documents.
func (g *GitHub) DocumentPath() string { return g.cfg.DocumentPath }

// Repos lists the authenticated owner's repositories, most recently
// updated first, up to the configured page limit. Results are cached for
// provenance lookups.
func (g *GitHub) Repos(ctx context.Context) ([]Repo, error) {
	var all []Repo
	for page := 1; page <= g.cfg.MaxPages; page++ {
		q := url.Values{
			"per_page":    {strconv.Itoa(perPage)},
			"page":        {strconv.Itoa(page)},
			"sort":        {"updated"},
			"affiliation": {"owner"},
		}
		var batch []Repo
		if err := g.getJSON(ctx, "list repositories", "/user/repos?"+q.Encode(), &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}

	g.mu.Lock()
	for _, r := range all {
		g.repos[r.Name] = r
	}
	g.mu.Unlock()
	return all, nil
}

// Projects lists repository names.
func (g *GitHub) Projects(ctx context.Context) ([]string, error) {
	repos, err := g.Repos(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(repos))
	for i, r := range repos {
		ids[i] = r.Name
	}
	return ids, nil
}

// Repo returns metadata for one repository, from cache when listed before.
func (g *GitHub) Repo(ctx context.Context, name string) (Repo, error) {
	g.mu.Lock()
	r, ok := g.repos[name]
	g.mu.Unlock()
	if ok {
		return r, nil
	}
	if err := g.getJSON(ctx, "get repository "+name, g.repoPath(name), &r); err != nil {
		return Repo{}, err
	}
	g.mu.Lock()
	g.repos[name] = r
	g.mu.Unlock()
	return r, nil
}

// Fetch downloads the raw project document of repository id.
func (g *GitHub) Fetch(ctx context.Context, id string) (*Document, error) {
	op := "fetch " + id + "/" + g.cfg.DocumentPath
	body, err := g.do(ctx, op, http.MethodGet, g.contentsPath(id, g.cfg.DocumentPath), "application/vnd.github.raw", nil)
	if err != nil {
		return nil, err
	}
	repo, err := g.Repo(ctx, id)
	if err != nil {
		return nil, err
	}
	repoURL := repo.HTMLURL
	if repoURL == "" {
		repoURL = RepoURL(g.cfg.Owner, id)
	}
	return &Document{
		ProjectID:  id,
		Source:     g.Name(),
		Content:    body,
		RepoName:   repo.Name,
		RepoURL:    repoURL,
		Provenance: repo.Provenance(),
	}, nil
}

// GetFile returns a repository file with its blob SHA.
func (g *GitHub) GetFile(ctx context.Context, repo, path string) (*File, error) {
	var payload struct {
		Path     string `json:"path"`
		SHA      string `json:"sha"`
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := g.getJSON(ctx, "get "+repo+"/"+path, g.contentsPath(repo, path), &payload); err != nil {
		return nil, err
	}
	data, err := decodeContent(payload.Content, payload.Encoding)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s/%s: %w", repo, path, err)
	}
	return &File{Path: payload.Path, SHA: payload.SHA, Content: data}, nil
}

// PutFile creates or replaces a repository file. sha must be the current
// blob SHA when replacing and empty when creating.
func (g *GitHub) PutFile(ctx context.Context, repo, path string, content []byte, sha, message string) error {
	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("source: encode put body: %w", err)
	}
	_, err = g.do(ctx, "put "+repo+"/"+path, http.MethodPut, g.contentsPath(repo, path), "application/vnd.github+json", payload)
	return err
}

// ListAssets lists the files of dir inside repository id.
func (g *GitHub) ListAssets(ctx context.Context, id, dir string) ([]Asset, error) {
	var items []struct {
		Name        string `json:"name"`
		Path        string `json:"path"`
		Type        string `json:"type"`
		Size        int64  `json:"size"`
		DownloadURL string `json:"download_url"`
	}
	if err := g.getJSON(ctx, "list "+id+"/"+dir, g.contentsPath(id, dir), &items); err != nil {
		return nil, err
	}
	var out []Asset
	for _, it := range items {
		if it.Type != "file" {
			continue
		}
		u := it.DownloadURL
		if u == "" {
			u = g.cfg.RawBase + "/" + g.cfg.Owner + "/" + id + "/main/" + it.Path
		}
		out = append(out, Asset{Name: it.Name, Path: it.Path, URL: u, Size: it.Size})
	}
	return out, nil
}

func (g *GitHub) repoPath(repo string) string {
	return "/repos/" + url.PathEscape(g.cfg.Owner) + "/" + url.PathEscape(repo)
}

func (g *GitHub) contentsPath(repo, path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return g.repoPath(repo) + "/contents/" + strings.Join(parts, "/")
}

func (g *GitHub) getJSON(ctx context.Context, op, path string, out any) error {
	body, err := g.do(ctx, op, http.MethodGet, path, "application/vnd.github+json", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperr.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do performs one API call, retrying server errors, rate limiting and
// network failures with exponential backoff. A Retry-After header
// overrides the computed wait. 404 maps to apperr.ErrNotFound.
func (g *GitHub) do(ctx context.Context, op, method, path, accept string, payload []byte) ([]byte, error) {
	var last *apperr.TransportError
	attempt := func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, g.cfg.APIBase+path, body)
		if err != nil {
			return nil, backoff.Permanent(&apperr.TransportError{Op: op, Err: err})
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(&apperr.TransportError{Op: op, Err: ctx.Err()})
			}
			last = &apperr.TransportError{Op: op, Err: err}
			return nil, last
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			last = &apperr.TransportError{Op: op, Err: err}
			return nil, last
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("source: %s: %w", op, apperr.ErrNotFound))
		case retryable(resp):
			last = &apperr.TransportError{Op: op, Status: resp.StatusCode, Err: statusReason(resp.StatusCode)}
			if secs, ok := retryAfter(resp.Header); ok {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, last
		case resp.StatusCode >= 300:
			return nil, backoff.Permanent(&apperr.TransportError{Op: op, Status: resp.StatusCode, Err: statusReason(resp.StatusCode)})
		}
		return data, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.cfg.RetryWait
	data, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(g.cfg.MaxRetries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			g.logger.Warn("github request retry", slog.String("op", op), slog.Duration("in", d), slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		var te *apperr.TransportError
		if errors.Is(err, apperr.ErrNotFound) || errors.As(err, &te) {
			return nil, err
		}
		var ra *backoff.RetryAfterError
		if errors.As(err, &ra) && last != nil {
			return nil, last
		}
		return nil, &apperr.TransportError{Op: op, Err: err}
	}
	return data, nil
}

// retryable reports whether a response is worth another attempt: server
// errors, 429, and 403 once the rate limit is exhausted.
func retryable(resp *http.Response) bool {
	switch {
	case resp.StatusCode >= 500:
		return true
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode == http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0"
	}
	return false
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) (int, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}

func statusReason(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return errors.New("invalid github token")
	case http.StatusForbidden:
		return errors.New("forbidden or rate limit exceeded")
	case http.StatusTooManyRequests:
		return errors.New("rate limited")
	case http.StatusConflict:
		return apperr.ErrConflict
	}
	return nil
}

func decodeContent(body, encoding string) ([]byte, error) {
	if encoding == "base64" {
		return base64.StdEncoding.DecodeString(strings.ReplaceAll(body, "\n", ""))
	}
	return []byte(body), nil
}
