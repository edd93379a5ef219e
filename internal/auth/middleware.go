package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/badge-blog/internal/models"
)

// RequireLogin はセッションを検証し、ユーザーをコンテキストに載せる
// ミドルウェアを返します。未認証の場合はログイン画面へリダイレクトします。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.resolveUser(c)
		if !ok {
			m.redirectToLogin(c)
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireRoles はログイン済みかつ指定ロールのいずれかを持つ場合のみ
// 通過させるミドルウェアを返します。ロール不一致は 403 です。
func (m *Manager) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.resolveUser(c)
		if !ok {
			m.redirectToLogin(c)
			return
		}

		allowed := false
		for _, role := range roles {
			if user.Category == role {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "FORBIDDEN",
				"message": "この操作を行う権限がありません。",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません。",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません。",
			})
			return
		}

		c.Next()
	}
}

// UserFrom はミドルウェアが解決したログイン済みユーザーを取り出します。
func UserFrom(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// resolveUser はセッションからユーザーIDを読み取り、有効期限を確認した上で
// ユーザーレコードをデータベースから引き直します。
func (m *Manager) resolveUser(c *gin.Context) (*models.User, bool) {
	session := sessions.Default(c)
	userID := readUserID(session.Get(sessionKeyUserID))
	if userID == 0 {
		return nil, false
	}

	now := time.Now()
	issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
	lastActive := readUnix(session.Get(sessionKeyLastActive))

	if issuedAt.IsZero() || now.Sub(issuedAt) > maxSessionLifetime {
		session.Clear()
		_ = session.Save()
		return nil, false
	}

	if lastActive.IsZero() || now.Sub(lastActive) > idleTimeout {
		session.Clear()
		_ = session.Save()
		return nil, false
	}

	var user models.User
	err := m.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 削除済みユーザーのセッションは無効化する
		session.Clear()
		_ = session.Save()
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	session.Set(sessionKeyLastActive, now.Unix())
	_ = session.Save()
	return &user, true
}

func (m *Manager) redirectToLogin(c *gin.Context) {
	target := m.LoginPath() + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func readUserID(v interface{}) uint {
	switch id := v.(type) {
	case uint:
		return id
	case int:
		if id < 0 {
			return 0
		}
		return uint(id)
	case int64:
		if id < 0 {
			return 0
		}
		return uint(id)
	case float64:
		if id < 0 {
			return 0
		}
		return uint(id)
	default:
		return 0
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
