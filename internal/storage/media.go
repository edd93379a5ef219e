// Package storage は記事のヘッダー画像を保存するローカルメディアストアを提供します。
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// 受け入れる画像形式。mimetypeによるシグネチャ判定で確認します。
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	// ErrNotImage はアップロードされた内容が画像でない場合に返されます。
	ErrNotImage = errors.New("uploaded content is not a supported image")
	// ErrTooLarge は画像サイズが上限を超えた場合に返されます。
	ErrTooLarge = errors.New("uploaded image exceeds the size limit")
	// ErrNotFound は要求されたメディアが存在しない場合に返されます。
	ErrNotFound = errors.New("media not found")
)

// MediaStore は画像ファイルをローカルディレクトリに保存します。
type MediaStore struct {
	dir     string
	maxSize int64
}

// NewMediaStore は保存先ディレクトリを用意して MediaStore を作成します。
func NewMediaStore(dir string, maxSize int64) (*MediaStore, error) {
	if dir == "" {
		return nil, errors.New("media dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &MediaStore{
		dir:     dir,
		maxSize: maxSize,
	}, nil
}

// Save はアップロードされたファイルを検証して保存し、公開用ファイル名を返します。
// ファイル名は衝突を避けるためUUIDで採番します。
func (s *MediaStore) Save(file *multipart.FileHeader) (string, error) {
	if s.maxSize > 0 && file.Size > s.maxSize {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	var reader io.Reader = src
	if s.maxSize > 0 {
		reader = io.LimitReader(src, s.maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", ErrTooLarge
	}

	// 拡張子ではなく内容のシグネチャで画像形式を判定する
	detected := mimetype.Detect(data)
	ext, ok := allowedImageTypes[detected.String()]
	if !ok {
		return "", ErrNotImage
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", err
	}
	return name, nil
}

// Resolve は公開用ファイル名をローカルパスに解決します。
// パストラバーサルを防ぐためベース名のみを受け付けます。
func (s *MediaStore) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}
