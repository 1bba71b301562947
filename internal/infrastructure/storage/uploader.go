// Package storage uploads registration attachments to an HTTP object store
// and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

const defaultTimeout = 60 * time.Second

// Config points the uploader at a bucket endpoint.
type Config struct {
	// BaseURL receives PUT requests at BaseURL/<folder>/<object>.
	BaseURL string
	// PublicURL is the prefix of returned URLs. Defaults to BaseURL.
	PublicURL string
	// Token, when set, is sent as a bearer credential.
	Token   string
	Timeout time.Duration
}

// Uploader implements ports.Uploader.
type Uploader struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

func NewUploader(cfg Config, log zerolog.Logger) *Uploader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.BaseURL
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &Uploader{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Upload stores file under folder with a unique object name.
func (u *Uploader) Upload(ctx context.Context, folder string, file *domain.Upload) (string, error) {
	if u.cfg.BaseURL == "" {
		return "", fmt.Errorf("storage: upload base url not configured")
	}
	if file == nil || file.Body == nil {
		return "", fmt.Errorf("storage: empty upload")
	}

	object := path.Join(strings.Trim(folder, "/"), uuid.NewString()+"-"+safeName(file.Filename))
	target := u.cfg.BaseURL + "/" + escapePath(object)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, file.Body)
	if err != nil {
		return "", fmt.Errorf("storage: build request: %w", err)
	}
	if file.Size > 0 {
		req.ContentLength = file.Size
	}
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	req.Header.Set("Content-Type", ct)
	if u.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.cfg.Token)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", object, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage: put %s: unexpected status %d", object, resp.StatusCode)
	}

	u.log.Debug().Str("object", object).Int64("size", file.Size).Msg("file uploaded")
	return u.cfg.PublicURL + "/" + escapePath(object), nil
}

// safeName keeps the base name and replaces characters that do not belong
// in an object key.
func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
