package webserver

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/config"
	"github.com/clubwize/backend/src/api/data"
	"github.com/clubwize/backend/src/api/mail"
	"github.com/clubwize/backend/src/api/storage"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client, mailer mail.Service, store storage.Service) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.UIBaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(db, rdb, mailer, cfg)
	forumH := NewForums(db, store)
	inviteH := NewInvitations(db, mailer, cfg)
	rulesH := NewRules(db, store)
	adoptH := NewAdoptions(db)
	contribH := NewContributions(db, store)
	postH := NewPosts(db, rdb, store)
	reportH := NewReports(db)
	adminH := NewAdmin(db)

	// Tunable through the settings table without a redeploy.
	rate := 60
	if v := data.GetSetting("rate_limit_per_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rate = n
		}
	}
	limiter := NewRateLimiter(rate, time.Minute)
	secret := []byte(cfg.JWTSecret)

	v1 := r.Group("/v1")
	{
		open := v1.Group("/auth")
		open.Use(RateLimitMiddleware(limiter))
		{
			open.POST("/signup", authH.Signup)
			open.POST("/verify-otp", authH.VerifyOTP)
			open.POST("/resend-otp", authH.ResendOTP)
			open.POST("/login", authH.Login)
			open.POST("/forgot-password", authH.ForgotPassword)
			open.POST("/reset-password", authH.ResetPassword)
		}

		secured := v1.Group("")
		secured.Use(JWTMiddleware(secret), RateLimitMiddleware(limiter))
		{
			secured.POST("/clubs", forumH.CreateClub)
			secured.GET("/clubs/:id", forumH.GetClub)
			secured.POST("/clubs/:id/join", forumH.JoinClub)
			secured.PUT("/clubs/:id/images", forumH.UpdateClubImages)
			secured.POST("/nodes", forumH.CreateNode)
			secured.PUT("/nodes/:id/images", forumH.UpdateNodeImages)
			secured.POST("/chapters", forumH.CreateChapter)

			secured.POST("/invitations", inviteH.Create)
			secured.POST("/invitations/:id/accept", inviteH.Accept)
			secured.POST("/invitations/:id/reject", inviteH.Reject)

			secured.POST("/rules-regulations", rulesH.Create)
			secured.POST("/rules-regulations/draft", rulesH.CreateDraft)
			secured.PUT("/rules-regulations", rulesH.Update)
			secured.GET("/rules-regulations/rules", rulesH.List)
			secured.GET("/rules-regulations/:id", rulesH.Detail)
			secured.PUT("/rules-regulations/like", rulesH.Like)
			secured.PATCH("/rules-regulations/archive-rule/:rulesId", rulesH.Archive)
			secured.PUT("/rules-regulations/propose-rule", adoptH.ProposeRule)
			secured.PUT("/rules-regulations/accept-reject-proposed-rules", adoptH.DecideRule)
			secured.PATCH("/rules-regulations/remove-rule-from-adoption/:adoptionId", adoptH.RemoveRule)

			secured.POST("/projects", contribH.CreateProject)
			secured.POST("/projects/draft", contribH.CreateProjectDraft)
			secured.GET("/projects/:id/activities", contribH.Activities)

			secured.POST("/adopt-contribution", contribH.Create)
			secured.PUT("/adopt-contribution/accept-reject", contribH.Decide)
			secured.POST("/adopt-contribution/adopt-project", adoptH.AdoptProject)
			secured.PUT("/adopt-contribution/accept-reject-proposed-project", adoptH.DecideProject)
			secured.GET("/adopt-contribution/leaderboard", adoptH.Leaderboard)

			secured.POST("/generic-post", postH.Create)
			secured.PUT("/generic-post/like", postH.Like)
			secured.PATCH("/generic-post/delete-generic/:id", postH.Delete)
			secured.POST("/generic-post/:id/files", postH.AttachFiles)

			secured.POST("/report", reportH.Create)
			secured.GET("/report/reasons", reportH.Reasons)

			secured.POST("/standard-assets", adminH.CreateStandardAsset)
		}

		admin := v1.Group("/admin")
		admin.Use(JWTMiddleware(secret), AdminMiddleware(db))
		{
			admin.GET("/reports", adminH.ListReports)
			admin.GET("/reports/:id", adminH.GetReport)
			admin.PATCH("/reports/:id/status", adminH.UpdateReportStatus)

			admin.GET("/users", adminH.ListUsers)
			admin.PATCH("/users/:id/status", adminH.UpdateUserStatus)

			admin.POST("/plugins", adminH.CreatePlugin)
			admin.GET("/plugins", adminH.ListPlugins)
			admin.GET("/plugins/:id", adminH.GetPlugin)
			admin.PUT("/plugins/:id", adminH.UpdatePlugin)
			admin.DELETE("/plugins/:id", adminH.DeletePlugin)
		}
	}
}
