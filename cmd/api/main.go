// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/badge-blog/internal/auth"
	"github.com/yourusername/badge-blog/internal/blog"
	"github.com/yourusername/badge-blog/internal/config"
	"github.com/yourusername/badge-blog/internal/storage"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// データベースの初期化
	db, err := setupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// メディアストアの初期化
	media, err := storage.NewMediaStore(cfg.MediaDir, cfg.MaxImageSize)
	if err != nil {
		log.Fatalf("Failed to init media store: %v", err)
	}

	// ログイン試行カウンタの初期化（REDIS_URL があればRedis共有）
	attempts, err := setupAttempts(cfg)
	if err != nil {
		log.Fatalf("Failed to init attempt limiter: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションストアの設定（クッキー署名鍵は必須）
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, cfg, db, attempts, media)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "badge-blog-api",
		"version": "0.1.0",
	})
}

// setupRoutes はブログのルートグループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB, attempts auth.AttemptLimiter, media *storage.MediaStore) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	authManager := auth.NewManager(cfg, db, attempts)
	blogService := blog.NewService(db)

	b := router.Group(cfg.RoutePrefix)
	{
		// 認証まわり
		b.POST("/register", authManager.Register)
		b.GET("/login", authManager.LoginPage)
		b.POST("/login", authManager.Login)
		b.POST("/logout",
			authManager.RequireLogin(),
			authManager.VerifyCSRF(),
			authManager.Logout,
		)

		// バッジ+PIN認証API（セッション不要の外部向けエンドポイント）
		b.POST("/api/authenticate_badge_pin", authManager.AuthenticateBadgePIN)

		// 公開ページ
		b.GET("/", blog.ListPostsHandler(blogService))
		b.GET("/post/:id", blog.GetPostHandler(blogService))
		b.GET("/media/:name", storage.ServeImageHandler(media))

		// コメントはログインしていれば誰でも投稿できる
		b.POST("/post/:id/comments",
			authManager.RequireLogin(),
			authManager.VerifyCSRF(),
			blog.CreateCommentHandler(blogService),
		)

		// 記事の作成・編集は executive と director のみ
		editors := b.Group("",
			authManager.RequireRoles(auth.CategoryExecutive, auth.CategoryDirector),
			authManager.VerifyCSRF(),
		)
		{
			editors.POST("/new-post", blog.CreatePostHandler(blogService))
			editors.PUT("/edit-post/:id", blog.UpdatePostHandler(blogService))
			editors.POST("/media", storage.UploadImageHandler(media, cfg.RoutePrefix+"/media"))
		}

		// 記事の削除は executive のみ
		b.DELETE("/delete/:id",
			authManager.RequireRoles(auth.CategoryExecutive),
			authManager.VerifyCSRF(),
			blog.DeletePostHandler(blogService),
		)

		// 管理ダッシュボード
		admin := b.Group("/admin",
			authManager.RequireRoles(auth.CategoryExecutive),
			authManager.VerifyCSRF(),
		)
		{
			admin.GET("/dashboard", blog.DashboardHandler(blogService))
			admin.POST("/delete_user/:id", blog.DeleteUserHandler(blogService))
		}
	}
}
