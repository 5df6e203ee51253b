package upload

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	StaticsFsPath = "/uploads/"
)

type LocalUploader struct {
	uploadDirPath string
	publicURL     string
	maxFileSize   int64
}

func NewLocalUploader(opts *Config) (*LocalUploader, error) {
	if err := os.MkdirAll(opts.LocalDir, 0o755); err != nil {
		return nil, err
	}
	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = StaticsFsPath
	}
	return &LocalUploader{
		uploadDirPath: opts.LocalDir,
		publicURL:     publicURL,
		maxFileSize:   opts.MaxFileSize,
	}, nil
}

func (u *LocalUploader) saveFile(content []byte, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0o644)
}

func (u *LocalUploader) url(subPath, name string) string {
	return strings.TrimSuffix(u.publicURL, "/") + "/" + path.Join(subPath, name)
}

func (u *LocalUploader) Upload(ctx context.Context, file *File, subPath string) (*UploadedFileInfo, error) {
	if err := checkFile(file, u.maxFileSize); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := generateHash()
	info := baseInfo(file, Local)
	name := generateFileName(file.Name, hash)
	info.StoragePath = filepath.Join(u.uploadDirPath, subPath, name)
	if err := u.saveFile(file.Content, info.StoragePath); err != nil {
		return nil, err
	}
	info.URL = u.url(subPath, name)

	if !file.IsImage() {
		return info, nil
	}

	thumb, err := makeThumbnail(file.Content)
	if err != nil {
		_ = os.Remove(info.StoragePath)
		return nil, err
	}
	thumbName := generateThumbnailName(file.Name, hash)
	info.Width = thumb.width
	info.Height = thumb.height
	info.ThumbnailStoragePath = filepath.Join(u.uploadDirPath, subPath, thumbName)
	if err := u.saveFile(thumb.png, info.ThumbnailStoragePath); err != nil {
		_ = os.Remove(info.StoragePath)
		return nil, err
	}
	info.ThumbnailURL = u.url(subPath, thumbName)
	return info, nil
}

func (u *LocalUploader) Remove(_ context.Context, fileInfo *UploadedFileInfo) error {
	if err := os.Remove(fileInfo.StoragePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if fileInfo.ThumbnailStoragePath != "" {
		if err := os.Remove(fileInfo.ThumbnailStoragePath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
