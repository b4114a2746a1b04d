package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/linkboard/internal/github"
	"github.com/JonMunkholm/linkboard/internal/logging"
)

var (
	// ErrNotCSV rejects uploads that are not CSV files before anything is
	// stored.
	ErrNotCSV = errors.New("please upload a valid CSV file")

	// ErrNoFile is returned when the request carried no file.
	ErrNoFile = errors.New("no file provided")
)

// cleanupTimeout bounds the delete of a staged upload, which runs even when
// the request context is already done.
const cleanupTimeout = 30 * time.Second

// UploadResult describes a dataset that replaced a workspace's data.
type UploadResult struct {
	UploadID string        `json:"uploadId"`
	FileName string        `json:"fileName"`
	Rows     int           `json:"rows"`
	View     ViewState     `json:"view"`
	Options  FilterOptions `json:"options"`
}

// IsCSV reports whether an upload looks like a CSV file, by extension or by
// declared content type.
func IsCSV(fileName, contentType string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/csv"
}

// UploadDataset stages the file in the repository, parses it and, when it
// yields rows, replaces the dataset of workspace id. The staged copy is
// deleted afterwards whether or not parsing succeeded. On failure the
// workspace is left untouched.
func (s *Service) UploadDataset(ctx context.Context, id, fileName, contentType string, r io.Reader) (*UploadResult, error) {
	if r == nil || fileName == "" {
		return nil, ErrNoFile
	}
	if !IsCSV(fileName, contentType) {
		s.LogAudit(ctx, AuditLogParams{Action: ActionUploadRejected, Target: fileName})
		return nil, ErrNotCSV
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", s.cfg.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	uploadID := uuid.NewString()
	stagedPath := path.Join(s.cfg.DataDir, uploadID+"_"+path.Base(filepath.ToSlash(fileName)))
	logger := logging.WithFields(ctx, "upload_id", uploadID, "file", fileName, "bytes", len(data))
	start := time.Now()

	var (
		token  string
		stored bool
		rows   []Row
	)

	err = s.runRemote(ctx,
		s.tokenStage(&token),
		Stage{Name: StageStore, Run: func(ctx context.Context) error {
			_, err := s.store.PutFile(ctx, token, stagedPath, data, "Upload "+path.Base(fileName), "")
			if err == nil {
				stored = true
			}
			return err
		}},
		Stage{Name: StageParse, Run: func(context.Context) error {
			text, err := ReadText(bytes.NewReader(data), s.cfg.MaxFileSize)
			if err != nil {
				return err
			}
			if rows = Parse(text); len(rows) == 0 {
				if herr := ValidateHeader(text); herr != nil {
					return fmt.Errorf("%w: %v", ErrEmptyDataset, herr)
				}
				return ErrEmptyDataset
			}
			return nil
		}},
	)

	if stored {
		s.cleanupStaged(ctx, token, stagedPath)
	}
	if err != nil {
		logger.Warn("upload failed", "stage", FailedStage(err), "error", err)
		return nil, err
	}

	ws := s.Workspace(id)
	view := ws.Load(fileName, rows)

	s.LogAudit(ctx, AuditLogParams{
		Action:       ActionDatasetUpload,
		Target:       fileName,
		RowsAffected: len(rows),
		Detail:       map[string]any{"upload_id": uploadID},
	})
	logger.Info("upload complete", "rows", len(rows), "duration_ms", time.Since(start).Milliseconds())

	return &UploadResult{
		UploadID: uploadID,
		FileName: fileName,
		Rows:     len(rows),
		View:     view,
		Options:  ws.Options(),
	}, nil
}

// cleanupStaged deletes a staged upload. A missing file counts as done and
// failures are only logged.
func (s *Service) cleanupStaged(ctx context.Context, token, stagedPath string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	err := RunStages(ctx, Stage{Name: StageCleanup, Run: func(ctx context.Context) error {
		f, err := s.store.GetFile(ctx, token, stagedPath)
		if errors.Is(err, github.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		err = s.store.DeleteFile(ctx, token, stagedPath, "Delete "+path.Base(stagedPath), f.SHA)
		if errors.Is(err, github.ErrNotFound) {
			return nil
		}
		return err
	}})
	if err != nil {
		logging.FromContext(ctx).Warn("staged upload not removed", "path", stagedPath, "error", err)
	}
}

// ExportDataset renders the filtered view of workspace id as CSV text.
func (s *Service) ExportDataset(ctx context.Context, id string) (string, error) {
	ws := s.Workspace(id)
	if !ws.HasData() {
		return "", ErrNoDataset
	}
	view := ws.View()
	s.LogAudit(ctx, AuditLogParams{Action: ActionDatasetExport, RowsAffected: len(view.Filtered)})
	return Export(view.Filtered), nil
}

// ResetFilters clears the criteria of workspace id.
func (s *Service) ResetFilters(ctx context.Context, id string) ViewState {
	view := s.Workspace(id).Reset()
	s.LogAudit(ctx, AuditLogParams{Action: ActionDatasetReset})
	return view
}
