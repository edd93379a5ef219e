// Package blog は記事・コメント・管理機能のサービス層とHTTPハンドラーを提供します。
package blog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/badge-blog/internal/models"
)

// 記事の日付表示形式。"January 02, 2006" 形式で保存します。
const postDateLayout = "January 02, 2006"

// PostInput は記事の作成・更新内容です。
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// Service はgormを使った記事・コメント・ユーザー操作の実装です。
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService は Service を作成します。
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:  db,
		now: time.Now,
	}
}

// ListPosts は全記事を著者付きで返します。
func (s *Service) ListPosts(ctx context.Context) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := s.db.WithContext(ctx).
		Preload("Author").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost は記事を著者・コメント付きで返します。
func (s *Service) GetPost(ctx context.Context, postID uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments").
		Preload("Comments.Author").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErr("記事が見つかりません。")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost は記事を作成します。タイトルは一意でなければなりません。
func (s *Service) CreatePost(ctx context.Context, author *models.User, input PostInput) (*models.BlogPost, error) {
	if err := s.ensureTitleFree(ctx, input.Title, 0); err != nil {
		return nil, err
	}

	post := models.BlogPost{
		AuthorID: author.ID,
		Title:    input.Title,
		Subtitle: input.Subtitle,
		Body:     input.Body,
		ImgURL:   input.ImgURL,
		Date:     s.now().Format(postDateLayout),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, mapWriteError(err)
	}
	post.Author = *author
	return &post, nil
}

// UpdatePost は記事を更新します。更新を行ったユーザーが新しい著者になります。
func (s *Service) UpdatePost(ctx context.Context, postID uint, editor *models.User, input PostInput) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErr("記事が見つかりません。")
	}
	if err != nil {
		return nil, err
	}

	if err := s.ensureTitleFree(ctx, input.Title, post.ID); err != nil {
		return nil, err
	}

	post.Title = input.Title
	post.Subtitle = input.Subtitle
	post.Body = input.Body
	post.ImgURL = input.ImgURL
	post.AuthorID = editor.ID
	if err := s.db.WithContext(ctx).Save(&post).Error; err != nil {
		return nil, mapWriteError(err)
	}
	post.Author = *editor
	return &post, nil
}

// DeletePost は記事を削除します。コメントは外部キー制約で連鎖削除されます。
func (s *Service) DeletePost(ctx context.Context, postID uint) error {
	result := s.db.WithContext(ctx).Delete(&models.BlogPost{}, postID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr("記事が見つかりません。")
	}
	return nil
}

// AddComment は記事にコメントを追加します。
func (s *Service) AddComment(ctx context.Context, author *models.User, postID uint, text string) (*models.Comment, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErr("記事が見つかりません。")
	}
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		Text:     text,
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}
	comment.Author = *author
	return &comment, nil
}

// ListUsers は全ユーザーをID順で返します。管理ダッシュボード用です。
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser はユーザーを削除します。ユーザーの投稿とコメントは
// 外部キー制約で連鎖削除されます。自分自身は削除できません。
func (s *Service) DeleteUser(ctx context.Context, actor *models.User, userID uint) error {
	if actor.ID == userID {
		return &Error{
			Code:    CodeSelfDelete,
			Message: "ダッシュボードから自分のアカウントは削除できません。",
		}
	}

	result := s.db.WithContext(ctx).Delete(&models.User{}, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr("ユーザーが見つかりません。")
	}
	return nil
}

// mapWriteError は一意制約違反を TITLE_TAKEN に対応付けます。
// ensureTitleFree の確認と書き込みの間に同タイトルの記事が作られた場合、
// タイトルの一意インデックスがここで違反を検出します。
func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Error{
			Code:    CodeTitleTaken,
			Message: "同じタイトルの記事が既に存在します。",
		}
	}
	return err
}

func (s *Service) ensureTitleFree(ctx context.Context, title string, selfID uint) error {
	var existing models.BlogPost
	err := s.db.WithContext(ctx).Where("title = ?", title).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return &Error{
		Code:    CodeTitleTaken,
		Message: "同じタイトルの記事が既に存在します。",
	}
}
