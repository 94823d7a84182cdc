// Package gitsync pushes the flat-file trade log to a GitHub repository
// after each insert. Sync is best-effort: every failure is logged and
// swallowed so journaling keeps working offline or unconfigured.
package gitsync

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"trade-journal-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Syncer mirrors a local file into a repository via the GitHub contents API.
type Syncer struct {
	cfg    *config.GitHub
	client *resty.Client
	logger *zap.Logger
}

// NewSyncer creates a syncer. It is inert until both a token and a repo are
// configured.
func NewSyncer(cfg *config.GitHub, logger *zap.Logger) *Syncer {
	client := resty.New().
		SetBaseURL("https://api.github.com").
		SetTimeout(15 * time.Second)
	return &Syncer{cfg: cfg, client: client, logger: logger}
}

// Enabled reports whether sync is configured.
func (s *Syncer) Enabled() bool {
	return s.cfg.Token != "" && s.cfg.Repo != ""
}

// SetBaseURL overrides the API endpoint, for tests.
func (s *Syncer) SetBaseURL(url string) {
	s.client.SetBaseURL(url)
}

type contentsResponse struct {
	SHA string `json:"sha"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// Sync uploads the local file at localPath to the configured repository
// path, creating or updating as needed. Returns an error for logging only;
// callers treat sync as fire-and-forget.
func (s *Syncer) Sync(ctx context.Context, localPath string) error {
	if !s.Enabled() {
		return nil
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	url := fmt.Sprintf("/repos/%s/contents/%s", s.cfg.Repo, s.cfg.Path)

	// An existing file must be updated with its current blob sha.
	var existing contentsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.Token).
		SetQueryParam("ref", s.cfg.Branch).
		SetResult(&existing).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to check existing file: %w", err)
	}

	body := putContentsRequest{
		Message: fmt.Sprintf("Update trades at %s", time.Now().Format("2006-01-02 15:04:05")),
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.cfg.Branch,
	}
	if resp.IsSuccess() {
		body.SHA = existing.SHA
	}

	resp, err = s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.Token).
		SetBody(body).
		Put(url)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload rejected with status %d", resp.StatusCode())
	}

	s.logger.Info("Synced trade log to GitHub",
		zap.String("repo", s.cfg.Repo),
		zap.String("path", s.cfg.Path),
	)
	return nil
}
