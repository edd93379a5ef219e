// Package auth は認証・認可機能を提供します。
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/badge-blog/internal/config"
	"github.com/yourusername/badge-blog/internal/models"
)

const (
	SessionCookieName    = "bb_session"
	sessionKeyUserID     = "auth_user_id"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"

	csrfHeader = "X-CSRF-Token"
)

var (
	maxSessionLifetime = 12 * time.Hour
	idleTimeout        = 30 * time.Minute
)

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	cfg      *config.Config
	db       *gorm.DB
	attempts AttemptLimiter
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, db *gorm.DB, attempts AttemptLimiter) *Manager {
	if attempts == nil {
		attempts = NewMemoryAttempts()
	}
	return &Manager{
		cfg:      cfg,
		db:       db,
		attempts: attempts,
	}
}

// LoginPath はログイン画面のパスを返します。未認証時のリダイレクト先です。
func (m *Manager) LoginPath() string {
	return m.cfg.RoutePrefix + "/login"
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Badge    string `json:"badge" binding:"required"`
	Company  string `json:"company" binding:"omitempty,max=150"`
	PIN      string `json:"pin" binding:"required"`
}

// PINは4〜6桁の数字のみ
var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// Register は POST {prefix}/register のハンドラーです。
// メールアドレスとバッジ番号の重複を確認し、パスワードとPINを
// ハッシュ化してユーザーを作成します。ロールはバッジ番号から導出します。
func (m *Manager) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || !pinPattern.MatchString(req.PIN) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "登録内容に不備があります。PINは4〜6桁の数字で入力してください。",
		})
		return
	}

	// 同じメールアドレスの登録済みユーザーがいればログインを促す
	var existing models.User
	err := m.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"code":     "EMAIL_TAKEN",
			"message":  "このメールアドレスは登録済みです。ログインしてください。",
			"redirect": m.LoginPath(),
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondInternal(c)
		return
	}

	// バッジ番号の重複確認
	err = m.db.Where("badge = ?", req.Badge).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"code":    "BADGE_TAKEN",
			"message": "このバッジ番号は登録済みです。別のバッジ番号を使用してください。",
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondInternal(c)
		return
	}

	passwordHash, err := HashSecret(req.Password)
	if err != nil {
		respondInternal(c)
		return
	}
	pinHash, err := HashSecret(req.PIN)
	if err != nil {
		respondInternal(c)
		return
	}

	user := models.User{
		Email:    req.Email,
		Password: passwordHash,
		Name:     req.Name,
		Badge:    req.Badge,
		PIN:      pinHash,
		Company:  req.Company,
		Category: DetermineCategory(req.Badge),
	}
	if err := m.db.Create(&user).Error; err != nil {
		respondInternal(c)
		return
	}

	// 登録後の自動ログインは行わない
	c.JSON(http.StatusCreated, gin.H{
		"message":  "登録が完了しました。ログインしてください。",
		"redirect": m.LoginPath(),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginPage は GET {prefix}/login のハンドラーです。
// 未認証リダイレクトの着地点として最小限の案内を返します。
func (m *Manager) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "email と password を POST してログインしてください。",
		"next":    c.Query("next"),
	})
}

// Login は POST {prefix}/login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を JSON で送ってください。",
		})
		return
	}

	ip := c.ClientIP()
	if retryAfter := m.attempts.CheckLock(c.Request.Context(), ip); retryAfter > 0 {
		// Retry-After は秒数またはHTTP-Date形式が推奨されているため秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    "TOO_MANY_ATTEMPTS",
			"message": "一定時間後に再度お試しください。",
		})
		return
	}

	var user models.User
	err := m.db.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		remaining := m.attempts.RecordFailure(c.Request.Context(), ip)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":              "EMAIL_NOT_FOUND",
			"message":           "このメールアドレスは登録されていません。",
			"remainingAttempts": remaining,
		})
		return
	}
	if err != nil {
		respondInternal(c)
		return
	}

	if !VerifySecret(user.Password, req.Password) {
		remaining := m.attempts.RecordFailure(c.Request.Context(), ip)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":              "INVALID_CREDENTIALS",
			"message":           "パスワードが正しくありません。",
			"remainingAttempts": remaining,
		})
		return
	}

	m.attempts.Reset(c.Request.Context(), ip)

	token, err := generateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "TOKEN_GENERATION_FAILED",
			"message": "CSRF トークンの生成に失敗しました。",
		})
		return
	}

	session := sessions.Default(c)
	now := time.Now()
	session.Set(sessionKeyUserID, user.ID)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)

	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました。",
		})
		return
	}

	next := c.Query("next")
	if next == "" {
		next = m.cfg.RoutePrefix + "/"
	}

	c.Header(csrfHeader, token)
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"name":     user.Name,
		"category": user.Category,
		"next":     next,
	})
}

// Logout は POST {prefix}/logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました。",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func respondInternal(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": "サーバー内部でエラーが発生しました。",
	})
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
