package core

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/linkboard/internal/github"
	"github.com/JonMunkholm/linkboard/internal/logging"
)

// Button is one labeled target URL of a link.
type Button struct {
	ButtonName string `json:"buttonName"`
	URL        string `json:"url"`
}

// LinkEntry is a published link: an id and its buttons.
type LinkEntry struct {
	ID      string   `json:"id"`
	Buttons []Button `json:"buttons"`
}

var (
	// ErrLinkNotFound is returned when no entry has the requested id.
	ErrLinkNotFound = errors.New("no buttons found")

	// ErrInvalidURL is returned for redirect targets that do not start
	// with http.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNoButtons is returned when a link is submitted without buttons.
	ErrNoButtons = errors.New("at least one button is required")
)

const (
	linkIDLength   = 10
	linkIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	maxIDAttempts  = 10
	linksCacheKey  = "links"
)

// ButtonFieldError is a validation failure on one field of one button.
type ButtonFieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// LinkValidationError collects every field failure of a submitted link.
type LinkValidationError struct {
	Fields []ButtonFieldError
}

func (e *LinkValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("button %d: %s", f.Index+1, f.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateButtons checks that every button has a non-blank name and URL.
func ValidateButtons(buttons []Button) error {
	if len(buttons) == 0 {
		return ErrNoButtons
	}

	var fields []ButtonFieldError
	for i, b := range buttons {
		if strings.TrimSpace(b.ButtonName) == "" {
			fields = append(fields, ButtonFieldError{Index: i, Field: "buttonName", Message: "Button Name is required"})
		}
		if strings.TrimSpace(b.URL) == "" {
			fields = append(fields, ButtonFieldError{Index: i, Field: "url", Message: "URL is required"})
		}
	}
	if len(fields) > 0 {
		return &LinkValidationError{Fields: fields}
	}
	return nil
}

// ValidateTargetURL accepts only targets starting with "http".
func ValidateTargetURL(url string) error {
	if !strings.HasPrefix(url, "http") {
		return ErrInvalidURL
	}
	return nil
}

// NewLinkID returns a random id of 10 characters from [A-Za-z0-9].
func NewLinkID() (string, error) {
	max := big.NewInt(int64(len(linkIDAlphabet)))
	b := make([]byte, linkIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate link id: %w", err)
		}
		b[i] = linkIDAlphabet[n.Int64()]
	}
	return string(b), nil
}

// GenerateLink publishes a new link with buttons and returns it. The index
// file is read with its SHA and written back with the new entry appended.
func (s *Service) GenerateLink(ctx context.Context, buttons []Button) (*LinkEntry, error) {
	var (
		token   string
		entries []LinkEntry
		sha     string
		entry   LinkEntry
	)

	err := s.runRemote(ctx,
		Stage{Name: StageValidate, Run: func(context.Context) error {
			return ValidateButtons(buttons)
		}},
		s.tokenStage(&token),
		Stage{Name: StageRead, Run: func(ctx context.Context) error {
			f, err := s.store.GetFile(ctx, token, s.cfg.LinksFile)
			if errors.Is(err, github.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			sha = f.SHA
			entries, err = decodeEntries(f.Content)
			return err
		}},
		Stage{Name: StageWrite, Run: func(ctx context.Context) error {
			id, err := uniqueLinkID(entries)
			if err != nil {
				return err
			}
			entry = LinkEntry{ID: id, Buttons: trimButtons(buttons)}
			entries = append(entries, entry)

			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("encode links: %w", err)
			}
			_, err = s.store.PutFile(ctx, token, s.cfg.LinksFile, data,
				fmt.Sprintf("Update %s with new buttons", s.cfg.LinksFile), sha)
			return err
		}},
	)
	if err != nil {
		return nil, err
	}

	// The raw host lags behind writes; serve the index we just wrote.
	s.linkCache.Set(linksCacheKey, entries, gocache.DefaultExpiration)

	s.LogAudit(ctx, AuditLogParams{
		Action: ActionLinkCreate,
		Target: entry.ID,
		Detail: map[string]any{"buttons": len(entry.Buttons)},
	})
	logging.FromContext(ctx).Info("link created", "link_id", entry.ID, "buttons", len(entry.Buttons))

	return &entry, nil
}

// ResolveLink returns the buttons published under key.
func (s *Service) ResolveLink(ctx context.Context, key string) ([]Button, error) {
	entries, err := s.linkIndex(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == key {
			return e.Buttons, nil
		}
	}
	return nil, fmt.Errorf("%w for ID: %s", ErrLinkNotFound, key)
}

// SearchButtons returns the entries having at least one button whose name
// contains term, ignoring case. Each entry keeps only its matching buttons.
func (s *Service) SearchButtons(ctx context.Context, term string) ([]LinkEntry, error) {
	entries, err := s.linkIndex(ctx)
	if err != nil {
		return nil, err
	}
	return MatchButtons(entries, term), nil
}

// MatchButtons is the pure filter behind SearchButtons.
func MatchButtons(entries []LinkEntry, term string) []LinkEntry {
	needle := strings.ToLower(term)
	out := make([]LinkEntry, 0, len(entries))
	for _, e := range entries {
		var matched []Button
		for _, b := range e.Buttons {
			if strings.Contains(strings.ToLower(b.ButtonName), needle) {
				matched = append(matched, b)
			}
		}
		if len(matched) > 0 {
			out = append(out, LinkEntry{ID: e.ID, Buttons: matched})
		}
	}
	return out
}

// linkIndex reads the published index, cached for LinkCacheTTL.
func (s *Service) linkIndex(ctx context.Context) ([]LinkEntry, error) {
	if v, ok := s.linkCache.Get(linksCacheKey); ok {
		return v.([]LinkEntry), nil
	}

	data, err := s.store.Raw(ctx, s.cfg.LinksFile)
	if errors.Is(err, github.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}

	entries, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	s.linkCache.Set(linksCacheKey, entries, gocache.DefaultExpiration)
	return entries, nil
}

// decodeEntries accepts either a JSON array of entries or a single entry.
func decodeEntries(data []byte) ([]LinkEntry, error) {
	return decodeList[LinkEntry](data, "links")
}

func decodeList[T any](data []byte, what string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode %s: %w", what, err)
		}
		return list, nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return []T{one}, nil
}

func uniqueLinkID(existing []LinkEntry) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.ID] = struct{}{}
	}
	for range maxIDAttempts {
		id, err := NewLinkID()
		if err != nil {
			return "", err
		}
		if _, dup := taken[id]; !dup {
			return id, nil
		}
	}
	return "", errors.New("generate link id: no free id after retries")
}

func trimButtons(buttons []Button) []Button {
	out := make([]Button, len(buttons))
	for i, b := range buttons {
		out[i] = Button{ButtonName: strings.TrimSpace(b.ButtonName), URL: strings.TrimSpace(b.URL)}
	}
	return out
}
