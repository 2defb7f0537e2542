package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"tubbit/internal/observability"
)

// Folders group assets by use.
const (
	FolderAvatars    = "avatars"
	FolderCovers     = "covers"
	FolderThumbnails = "thumbnails"
	FolderTweets     = "tweets"
	FolderVideos     = "videos"
)

const (
	defaultMaxImageBytes = 10 << 20
	defaultMaxVideoBytes = 512 << 20
)

var (
	// ErrTooLarge reports an upload above the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrEmpty reports a missing or zero-length upload.
	ErrEmpty = errors.New("no file uploaded")
	// ErrUnsupported reports a file of the wrong kind.
	ErrUnsupported = errors.New("unsupported file type")
)

// File is an uploaded multipart part.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader validates uploads, normalizes images and probes videos before storing them.
type Uploader struct {
	store         Store
	prober        Prober
	tempDir       string
	maxImageBytes int64
	maxVideoBytes int64
	logger        *slog.Logger
}

// UploaderOptions configures limits; zero values select the defaults.
type UploaderOptions struct {
	TempDir       string
	MaxImageBytes int64
	MaxVideoBytes int64
	Logger        *slog.Logger
}

func NewUploader(store Store, prober Prober, opts UploaderOptions) *Uploader {
	u := &Uploader{
		store:         store,
		prober:        prober,
		tempDir:       opts.TempDir,
		maxImageBytes: opts.MaxImageBytes,
		maxVideoBytes: opts.MaxVideoBytes,
		logger:        opts.Logger,
	}
	if u.maxImageBytes <= 0 {
		u.maxImageBytes = defaultMaxImageBytes
	}
	if u.maxVideoBytes <= 0 {
		u.maxVideoBytes = defaultMaxVideoBytes
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u
}

// UploadImage stores f as WebP under folder.
func (u *Uploader) UploadImage(ctx context.Context, folder string, f File) (asset *Asset, err error) {
	defer func() { recordUpload("image", err) }()

	if f.Body == nil {
		return nil, ErrEmpty
	}
	content, err := io.ReadAll(io.LimitReader(f.Body, u.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(content)) > u.maxImageBytes {
		return nil, ErrTooLarge
	}

	normalized, err := NormalizeImage(content, MaxImageDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return u.store.Put(ctx, Object{
		Folder:      folder,
		Ext:         "webp",
		ContentType: "image/webp",
		Size:        int64(len(normalized)),
		Body:        bytes.NewReader(normalized),
	})
}

// UploadVideo spools f to a temporary file, probes its duration and stores it.
func (u *Uploader) UploadVideo(ctx context.Context, f File) (asset *Asset, err error) {
	defer func() { recordUpload("video", err) }()

	if f.Body == nil {
		return nil, ErrEmpty
	}
	contentType := mediaType(f.ContentType)
	if contentType != "" && !strings.HasPrefix(contentType, "video/") {
		return nil, ErrUnsupported
	}

	tmp, err := os.CreateTemp(u.tempDir, "upload-*"+filepath.Ext(f.Name))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			u.logger.WarnContext(ctx, "failed to remove spooled upload", slog.String("path", tmp.Name()), slog.String("error", rmErr.Error()))
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(f.Body, u.maxVideoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("spool video: %w", err)
	}
	if n == 0 {
		return nil, ErrEmpty
	}
	if n > u.maxVideoBytes {
		return nil, ErrTooLarge
	}

	duration, err := u.prober.Duration(ctx, tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind video: %w", err)
	}
	if contentType == "" {
		contentType = "video/mp4"
	}
	ext := strings.TrimPrefix(filepath.Ext(f.Name), ".")
	if ext == "" {
		ext = "mp4"
	}

	asset, err = u.store.Put(ctx, Object{
		Folder:      FolderVideos,
		Ext:         ext,
		ContentType: contentType,
		Size:        n,
		Body:        tmp,
	})
	if err != nil {
		return nil, err
	}
	asset.Duration = duration
	return asset, nil
}

// Remove deletes assets best effort; failures are logged.
func (u *Uploader) Remove(ctx context.Context, publicIDs ...string) {
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := u.store.Delete(ctx, id); err != nil {
			u.logger.WarnContext(ctx, "failed to delete media asset", slog.String("public_id", id), slog.String("error", err.Error()))
		}
	}
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mt)
}

func recordUpload(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.MediaUploads.WithLabelValues(kind, result).Inc()
}
