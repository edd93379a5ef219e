package storage

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadImageHandler は POST {prefix}/media のハンドラーを返します。
// 保存に成功すると img_url にそのまま使えるURLを返します。
func UploadImageHandler(store *MediaStore, mediaBasePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "multipart/form-data の image フィールドで画像を送信してください。",
			})
			return
		}

		name, err := store.Save(file)
		switch {
		case errors.Is(err, ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"code":    "LIMIT_EXCEEDED",
				"message": "画像サイズが上限を超えています。",
			})
			return
		case errors.Is(err, ErrNotImage):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "UNSUPPORTED_MEDIA",
				"message": "PNG・JPEG・GIF・WebPのいずれかの画像を送信してください。",
			})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "画像の保存に失敗しました。",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"filename": name,
			"url":      mediaBasePath + "/" + name,
		})
	}
}

// ServeImageHandler は GET {prefix}/media/:name のハンドラーを返します。
func ServeImageHandler(store *MediaStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := store.Resolve(c.Param("name"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "NOT_FOUND",
				"message": "画像が見つかりません。",
			})
			return
		}
		c.File(path)
	}
}
