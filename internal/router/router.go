package router

import (
	"net/http"

	"github.com/Rashedman4/special-backend/internal/handler"
	"github.com/Rashedman4/special-backend/internal/middleware"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/service"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Deps 路由依赖的服务
type Deps struct {
	Users       *service.UserService
	Wallets     *service.WalletService
	Communities *service.CommunityService
	Posts       *service.PostService
	Tokens      *pkg.TokenIssuer

	AdminToken string
	Sentry     bool
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(pkg.MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(pkg.MetricsHandler()))

	user := handler.NewUserHandler(d.Users)
	wallet := handler.NewWalletHandler(d.Wallets)
	community := handler.NewCommunityHandler(d.Communities)
	post := handler.NewPostHandler(d.Posts)
	interaction := handler.NewInteractionHandler(d.Posts)

	api := r.Group("/api")
	api.Use(middleware.Identity(d.Tokens))

	// 注册登录
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", user.Signup)
		authGroup.POST("/login", user.Login)
		authGroup.POST("/refresh", user.Refresh)
	}

	// 用户相关接口
	userGroup := api.Group("/users")
	{
		userGroup.GET("", user.List)
		userGroup.GET("/username/:username", user.ByUsername)
		userGroup.PUT("/:id/profile", user.UpdateProfile)
	}

	// 钱包
	walletGroup := api.Group("/wallet")
	{
		walletGroup.POST("/transfer", wallet.Transfer)
		walletGroup.GET("/:userId", wallet.Get)
		walletGroup.GET("/:userId/transactions", wallet.Transactions)
	}

	// 社区相关接口
	communityGroup := api.Group("/communities")
	{
		communityGroup.GET("", community.List)
		communityGroup.POST("", community.Create)
		communityGroup.GET("/:id", community.Get)
		communityGroup.POST("/:id/join", community.Join)
		communityGroup.POST("/:id/leave", community.Leave)
	}

	// 帖子相关接口
	postGroup := api.Group("/posts")
	{
		postGroup.GET("", post.List)
		postGroup.POST("", post.Create)
		postGroup.DELETE("/:id", post.Delete)
		postGroup.POST("/:id/like", interaction.Like)
		postGroup.POST("/:id/vote", interaction.Vote)
		postGroup.POST("/:id/attend", interaction.Attend)
	}

	// 管理接口
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminRequired(d.AdminToken))
	{
		adminGroup.PATCH("/communities/:id/status", community.SetStatus)
		adminGroup.DELETE("/users/:id", user.Delete)
	}

	return r
}
