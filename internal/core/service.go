package core

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/linkboard/internal/github"
)

// ContentStore is the repository-backed file store the service works on.
// *github.Client satisfies it.
type ContentStore interface {
	GetFile(ctx context.Context, token, path string) (*github.File, error)
	PutFile(ctx context.Context, token, path string, content []byte, message, sha string) (string, error)
	DeleteFile(ctx context.Context, token, path, message, sha string) error
	Raw(ctx context.Context, path string) ([]byte, error)
}

// TokenProvider hands out storage tokens. *github.TokenSource satisfies it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// ErrNoDataset is returned by analysis calls made before any upload.
var ErrNoDataset = errors.New("no dataset loaded")

// ServiceConfig holds the service settings. Zero fields take defaults.
type ServiceConfig struct {
	DataDir   string // upload staging directory in the repository
	LinksFile string // link index
	UsersFile string // login records

	MaxFileSize          int64
	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
	UploadTimeout        time.Duration

	LinkCacheTTL time.Duration
	WorkspaceTTL time.Duration
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.DataDir == "" {
		c.DataDir = "Data"
	}
	if c.LinksFile == "" {
		c.LinksFile = "Data.json"
	}
	if c.UsersFile == "" {
		c.UsersFile = "Login.json"
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 10 << 20
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = 2 * time.Minute
	}
	if c.LinkCacheTTL <= 0 {
		c.LinkCacheTTL = time.Minute
	}
	if c.WorkspaceTTL <= 0 {
		c.WorkspaceTTL = 24 * time.Hour
	}
	return c
}

// Service is the entry point for link, login and analysis operations.
type Service struct {
	store  ContentStore
	tokens TokenProvider
	audit  AuditSink
	cfg    ServiceConfig

	limiter    *UploadLimiter
	linkCache  *gocache.Cache
	workspaces *gocache.Cache
}

// NewService wires a Service. audit may be nil to disable auditing.
func NewService(store ContentStore, tokens TokenProvider, audit AuditSink, cfg ServiceConfig) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		store:      store,
		tokens:     tokens,
		audit:      audit,
		cfg:        cfg,
		limiter:    NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.MaxUploadWait),
		linkCache:  gocache.New(cfg.LinkCacheTTL, 2*cfg.LinkCacheTTL),
		workspaces: gocache.New(cfg.WorkspaceTTL, time.Hour),
	}
}

// Config returns the effective settings.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// Workspace returns the workspace for id, creating it on first use. Each
// access pushes its expiry out by WorkspaceTTL.
func (s *Service) Workspace(id string) *Workspace {
	if v, ok := s.workspaces.Get(id); ok {
		ws := v.(*Workspace)
		s.workspaces.Set(id, ws, gocache.DefaultExpiration)
		return ws
	}
	ws := NewWorkspace()
	if err := s.workspaces.Add(id, ws, gocache.DefaultExpiration); err != nil {
		// Lost a race with another request for the same id.
		if v, ok := s.workspaces.Get(id); ok {
			return v.(*Workspace)
		}
	}
	return ws
}

// DropWorkspace discards the workspace for id.
func (s *Service) DropWorkspace(id string) {
	s.workspaces.Delete(id)
}

// UploadLimiterStatus reports upload slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// tokenStage fetches a storage token into *dst.
func (s *Service) tokenStage(dst *string) Stage {
	return Stage{Name: StageToken, Run: func(ctx context.Context) error {
		tok, err := s.tokens.Token(ctx)
		if err != nil {
			return err
		}
		*dst = tok
		return nil
	}}
}

// runRemote runs stages that talk to the store and drops the cached token
// when the store rejects it, so the next call fetches a fresh one.
func (s *Service) runRemote(ctx context.Context, stages ...Stage) error {
	err := RunStages(ctx, stages...)
	if errors.Is(err, github.ErrUnauthorized) {
		s.tokens.Invalidate()
	}
	return err
}
