package blog

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/badge-blog/internal/auth"
	"github.com/yourusername/badge-blog/internal/models"
)

// PostService は記事の閲覧と編集を提供します。
type PostService interface {
	ListPosts(ctx context.Context) ([]models.BlogPost, error)
	GetPost(ctx context.Context, postID uint) (*models.BlogPost, error)
	CreatePost(ctx context.Context, author *models.User, input PostInput) (*models.BlogPost, error)
	UpdatePost(ctx context.Context, postID uint, editor *models.User, input PostInput) (*models.BlogPost, error)
	DeletePost(ctx context.Context, postID uint) error
}

// CommentService はコメントの投稿を提供します。
type CommentService interface {
	AddComment(ctx context.Context, author *models.User, postID uint, text string) (*models.Comment, error)
}

// AdminService は管理ダッシュボード向けの操作を提供します。
type AdminService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListPosts(ctx context.Context) ([]models.BlogPost, error)
	DeleteUser(ctx context.Context, actor *models.User, userID uint) error
}

// ListPostsHandler は GET {prefix}/ のハンドラーを返します。
func ListPostsHandler(svc PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := svc.ListPosts(c.Request.Context())
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"posts": posts})
	}
}

// GetPostHandler は GET {prefix}/post/:id のハンドラーを返します。
func GetPostHandler(svc PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, err := parsePostID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		post, err := svc.GetPost(c.Request.Context(), postID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

type postRequest struct {
	Title    string `json:"title" binding:"required,max=250"`
	Subtitle string `json:"subtitle" binding:"required,max=250"`
	Body     string `json:"body" binding:"required"`
	ImgURL   string `json:"img_url" binding:"required,url"`
}

// CreatePostHandler は POST {prefix}/new-post のハンドラーを返します。
// 認可は RequireRoles ミドルウェア側で済んでいる前提です。
func CreatePostHandler(svc PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.UserFrom(c)
		if !ok {
			respondWithError(c, errors.New("missing authenticated user"))
			return
		}

		var req postRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    CodeInvalidInput,
				"message": "title・subtitle・body・img_url をすべて入力してください。img_url はURL形式です。",
			})
			return
		}

		post, err := svc.CreatePost(c.Request.Context(), user, PostInput{
			Title:    req.Title,
			Subtitle: req.Subtitle,
			Body:     req.Body,
			ImgURL:   req.ImgURL,
		})
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
	}
}

// UpdatePostHandler は PUT {prefix}/edit-post/:id のハンドラーを返します。
func UpdatePostHandler(svc PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.UserFrom(c)
		if !ok {
			respondWithError(c, errors.New("missing authenticated user"))
			return
		}

		postID, err := parsePostID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		var req postRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    CodeInvalidInput,
				"message": "title・subtitle・body・img_url をすべて入力してください。img_url はURL形式です。",
			})
			return
		}

		post, err := svc.UpdatePost(c.Request.Context(), postID, user, PostInput{
			Title:    req.Title,
			Subtitle: req.Subtitle,
			Body:     req.Body,
			ImgURL:   req.ImgURL,
		})
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// DeletePostHandler は DELETE {prefix}/delete/:id のハンドラーを返します。
func DeletePostHandler(svc PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, err := parsePostID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		if err := svc.DeletePost(c.Request.Context(), postID); err != nil {
			respondWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateCommentHandler は POST {prefix}/post/:id/comments のハンドラーを返します。
func CreateCommentHandler(svc CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.UserFrom(c)
		if !ok {
			respondWithError(c, errors.New("missing authenticated user"))
			return
		}

		postID, err := parsePostID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    CodeInvalidInput,
				"message": "コメント本文を入力してください。",
			})
			return
		}

		comment, err := svc.AddComment(c.Request.Context(), user, postID, req.Text)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}

// DashboardHandler は GET {prefix}/admin/dashboard のハンドラーを返します。
func DashboardHandler(svc AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			respondWithError(c, err)
			return
		}
		posts, err := svc.ListPosts(c.Request.Context())
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users": users,
			"posts": posts,
		})
	}
}

// DeleteUserHandler は POST {prefix}/admin/delete_user/:id のハンドラーを返します。
func DeleteUserHandler(svc AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.UserFrom(c)
		if !ok {
			respondWithError(c, errors.New("missing authenticated user"))
			return
		}

		userID, err := parseIDParam(c, "id")
		if err != nil {
			respondWithError(c, err)
			return
		}

		if err := svc.DeleteUser(c.Request.Context(), actor, userID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "ユーザーを削除しました。",
		})
	}
}

func parsePostID(c *gin.Context) (uint, error) {
	return parseIDParam(c, "id")
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, &Error{
			Code:    CodeInvalidInput,
			Message: "IDは正の整数で指定してください。",
		}
	}
	return uint(id), nil
}

func respondWithError(c *gin.Context, err error) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		switch apiErr.Code {
		case CodeNotFound:
			status = http.StatusNotFound
		case CodeTitleTaken:
			status = http.StatusConflict
		case CodeSelfDelete, CodeInvalidInput:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "リクエストがキャンセルされました。",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "サーバー内部でエラーが発生しました。",
		})
	}
}
