package upload

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/samber/lo"
)

const (
	HashLength = 16
)

type File struct {
	Name    string `json:"name"`
	Mime    string `json:"mime"`
	Content []byte `json:"content"`
}

func (file *File) IsImage() bool {
	return strings.HasPrefix(file.Mime, "image/")
}

type UploadedFileInfo struct {
	Name                 string   `json:"name"`
	Mime                 string   `json:"mime"`
	URL                  string   `json:"url"`
	ThumbnailURL         string   `json:"thumbnail_url"`
	Width                int64    `json:"width"`
	Height               int64    `json:"height"`
	Size                 int64    `json:"size"`
	StoragePath          string   `json:"storage_path"`
	ThumbnailStoragePath string   `json:"thumbnail_storage_path"`
	Provider             Provider `json:"provider"`
}

func generateHash() string {
	return lo.RandomString(HashLength, lo.AlphanumericCharset)
}

func generateFileName(filename, hash string) string {
	return hash + "_" + strings.ReplaceAll(path.Base(filename), " ", "-")
}

// thumbnails are always PNG whatever the source format
func generateThumbnailName(filename, hash string) string {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return "thumb_" + hash + "_" + strings.ReplaceAll(name, " ", "-") + ".png"
}

// ParseFileHeader reads a multipart part into memory, refusing anything
// larger than maxSize.
func ParseFileHeader(fileHeader *multipart.FileHeader, maxSize int64) (*File, error) {
	if fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if maxSize > 0 && fileHeader.Size > maxSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return nil, ErrFileTooLarge
	}
	return &File{
		Name:    fileHeader.Filename,
		Mime:    fileHeader.Header.Get("Content-Type"),
		Content: content,
	}, nil
}

type thumbnailResult struct {
	width  int64
	height int64
	png    []byte
}

// makeThumbnail decodes the image, scales it to fit the thumbnail box and
// encodes the result as PNG.
func makeThumbnail(content []byte) (*thumbnailResult, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	thumb := resize.Thumbnail(DefaultThumbnailWidthInPx, DefaultThumbnailHeightInPx, img, resize.Lanczos3)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.PNG); err != nil {
		return nil, err
	}
	return &thumbnailResult{
		width:  int64(img.Bounds().Dx()),
		height: int64(img.Bounds().Dy()),
		png:    buf.Bytes(),
	}, nil
}

func baseInfo(file *File, provider Provider) *UploadedFileInfo {
	return &UploadedFileInfo{
		Name:     file.Name,
		Mime:     file.Mime,
		Size:     int64(len(file.Content)),
		Provider: provider,
	}
}

func checkFile(file *File, maxSize int64) error {
	if len(file.Content) == 0 {
		return ErrEmptyFile
	}
	if maxSize > 0 && int64(len(file.Content)) > maxSize {
		return ErrFileTooLarge
	}
	return nil
}
