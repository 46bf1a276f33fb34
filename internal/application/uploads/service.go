// Package uploads issues signed Supabase storage URLs for documentation assets.
package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/docs"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
)

// DefaultBucket holds doc page images and attachments.
const DefaultBucket = "doc-assets"

var (
	ErrFileNameRequired = apperr.New(apperr.KindValidation, "file_name is required")
	ErrStorageFailed    = apperr.New(apperr.KindBackend, "Could not create upload URL")
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SupabaseClient is the part of Supabase storage the service needs.
type SupabaseClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// HTTPClient is a SupabaseClient backed by the storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	body, _ := json.Marshal(map[string]interface{}{"expiresIn": 3600, "upsert": false})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	// Storage wants the service_role key as both apikey and bearer.
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + "/storage/v1" + strings.TrimPrefix(u, "/storage/v1"), nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// Service issues upload URLs for assets of spaces the caller can edit.
type Service struct {
	Client      SupabaseClient
	SupabaseURL string
	Bucket      string
	Docs        *docs.Service
	Now         func() time.Time
}

// DocAssetInput is the request body for a doc asset upload.
type DocAssetInput struct {
	SpaceID  uuid.UUID `json:"space_id" validate:"required"`
	FileName string    `json:"file_name" validate:"required,max=200"`
}

type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

func (s *Service) bucket() string {
	if s.Bucket == "" {
		return DefaultBucket
	}
	return s.Bucket
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CleanFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func CleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
}

// DocAsset returns a signed upload URL under spaces/<space_id>/ for a space the caller may edit.
func (s *Service) DocAsset(ctx context.Context, id access.Identity, in DocAssetInput) (*UploadResult, error) {
	name := CleanFileName(in.FileName)
	if name == "" {
		return nil, ErrFileNameRequired
	}
	space, caps, err := s.Docs.SpaceAccess(ctx, id, in.SpaceID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("spaces/%s/%d-%s", space.SpaceID, s.now().UnixMilli(), name)
	signedURL, err := s.Client.CreateSignedUploadURL(ctx, s.bucket(), objectPath)
	if err != nil {
		return nil, apperr.Wrap(ErrStorageFailed, err)
	}
	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.SupabaseURL, "/"), s.bucket(), objectPath)
	return &UploadResult{UploadURL: signedURL, PublicURL: publicURL, Path: objectPath}, nil
}
