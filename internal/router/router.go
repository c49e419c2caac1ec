package router

import (
	"quill/internal/handlers"
	"quill/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	authHandler := handlers.NewAuthHandler()
	postHandler := handlers.NewPostHandler()
	categoryHandler := handlers.NewCategoryHandler()
	userHandler := handlers.NewUserHandler()
	adminHandler := handlers.NewAdminHandler()
	imageHandler := handlers.NewImageHandler()
	seoHandler := handlers.NewSEOHandler()

	// Public routes
	r.GET("/", postHandler.List)
	r.GET("/search", postHandler.Search)
	r.GET("/post/:slug", postHandler.Detail)
	r.GET("/categories", categoryHandler.List)
	r.GET("/category/:slug", categoryHandler.Detail)
	r.GET("/author/:id", userHandler.AuthorProfile)

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.GET("/forgot-password", authHandler.ShowForgotPassword)
	r.POST("/forgot-password", authHandler.ForgotPassword)
	r.GET("/reset-password", authHandler.ShowResetPassword)
	r.POST("/reset-password", authHandler.ResetPassword)
	r.GET("/captcha/refresh", authHandler.RefreshCaptcha)

	r.GET("/auth/google", authHandler.GoogleLogin)
	r.GET("/auth/google/callback", authHandler.GoogleCallback)

	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// Writing and commenting need a login
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/write", postHandler.ShowCreate)
		authorized.POST("/write", postHandler.Create)
		authorized.GET("/post/:slug/edit", postHandler.ShowEdit)
		authorized.POST("/post/:slug/edit", postHandler.Update)
		authorized.DELETE("/post/:slug", postHandler.Delete)
		authorized.POST("/post/:slug/comment", postHandler.CreateComment)

		authorized.POST("/api/upload", imageHandler.Upload)
	}

	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.AuthRequired())
	{
		dashboard.GET("", userHandler.Dashboard)
		dashboard.GET("/settings", userHandler.ShowSettings)
		dashboard.POST("/settings", userHandler.UpdateSettings)
	}

	// Moderation area. Collection pages use the plural prefix, single-item
	// actions the singular one, so static and wildcard segments never meet.
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", adminHandler.Dashboard)

		admin.GET("/posts", adminHandler.ListPosts)
		admin.POST("/post/:slug/status", adminHandler.TogglePostStatus)
		admin.DELETE("/post/:slug", adminHandler.DeletePost)

		admin.GET("/comments", adminHandler.ListComments)
		admin.POST("/comments/approve-all", adminHandler.ApproveAllComments)
		admin.POST("/comment/:id/approve", adminHandler.ApproveComment)
		admin.DELETE("/comment/:id", adminHandler.DeleteComment)

		admin.GET("/categories", adminHandler.ListCategories)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.POST("/category/:id", adminHandler.UpdateCategory)
		admin.DELETE("/category/:id", adminHandler.DeleteCategory)

		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/user/:id/role", adminHandler.ToggleUserRole)
		admin.DELETE("/user/:id", adminHandler.DeleteUser)
	}
}
