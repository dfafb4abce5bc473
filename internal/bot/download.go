package bot

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDownloadTimeout is the default timeout for image downloads
	DefaultDownloadTimeout = 30 * time.Second
	// DefaultMaxImageSize is the default maximum image size (10MB)
	DefaultMaxImageSize = 10 * 1024 * 1024
)

// ImageDownloader fetches photos from the Telegram file server.
type ImageDownloader struct {
	client  *resty.Client
	maxSize int64
}

// NewImageDownloader creates a new ImageDownloader with default settings.
func NewImageDownloader() *ImageDownloader {
	return &ImageDownloader{
		client:  resty.New().SetDebug(false).SetTimeout(DefaultDownloadTimeout),
		maxSize: DefaultMaxImageSize,
	}
}

// WithMaxSize sets a custom maximum file size.
func (d *ImageDownloader) WithMaxSize(maxSize int64) *ImageDownloader {
	d.maxSize = maxSize
	return d
}

// DownloadFromURL downloads image data from a URL.
// It respects context cancellation and enforces size limits.
func (d *ImageDownloader) DownloadFromURL(ctx context.Context, imageURL string) ([]byte, error) {
	res, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("download failed: status %d", res.StatusCode())
	}

	// Telegram serves documents as application/octet-stream
	contentType := res.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	if res.RawResponse.ContentLength > d.maxSize {
		return nil, fmt.Errorf("image too large: %d bytes exceeds limit of %d bytes", res.RawResponse.ContentLength, d.maxSize)
	}

	// LimitReader enforces the limit even if Content-Length is missing or wrong
	data, err := io.ReadAll(io.LimitReader(body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("image too large: exceeds limit of %d bytes", d.maxSize)
	}

	return data, nil
}

// DownloadUpload resolves a Telegram file ID and downloads it as an upload.
// An empty name is replaced by the base name of the file path on the
// Telegram file server (e.g. file_12.jpg).
func (d *ImageDownloader) DownloadUpload(
	ctx context.Context,
	getFileDirectURL func(fileID string) (string, error),
	fileID string,
	name string,
) (intake.Upload, error) {
	log.Info().Str("fileID", fileID).Msg("downloading telegram file")

	fileURL, err := getFileDirectURL(fileID)
	if err != nil {
		return intake.Upload{}, fmt.Errorf("failed to get file URL: %w", err)
	}

	data, err := d.DownloadFromURL(ctx, fileURL)
	if err != nil {
		return intake.Upload{}, err
	}

	if name == "" {
		name = fileNameFromURL(fileURL)
	}
	return intake.Upload{Name: name, Data: data}, nil
}

func fileNameFromURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
