package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/badge-blog/internal/models"
)

type badgePINRequest struct {
	Badge string `json:"badge"`
	PIN   string `json:"pin"`
}

// AuthenticateBadgePIN は POST {prefix}/api/authenticate_badge_pin のハンドラーです。
// バッジ番号でユーザーを引き当ててからPINのハッシュ照合を行います。
// 対話的なログインと違い、失敗もJSONの構造化レスポンスで返します。
func (m *Manager) AuthenticateBadgePIN(c *gin.Context) {
	var req badgePINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "リクエストはJSONで送ってください。",
		})
		return
	}

	if req.Badge == "" || req.PIN == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "badge と pin の両方が必要です。",
		})
		return
	}

	var user models.User
	err := m.db.Where("badge = ?", req.Badge).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "バッジ番号が見つかりません。",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "サーバー内部でエラーが発生しました。",
		})
		return
	}

	if !VerifySecret(user.PIN, req.PIN) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "PINが正しくありません。",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "認証に成功しました。",
		"user_id":  user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"category": user.Category,
	})
}
