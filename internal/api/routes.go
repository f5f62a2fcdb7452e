package api

import (
	"net/http"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	navigator service.Navigator,
	generationService service.GenerationService,
	sectionService service.SectionService,
	preferencesService service.PreferencesService,
) {
	RegisterValidators()

	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService, navigator)
	generationHandler := NewGenerationHandler(generationService)
	sectionHandler := NewSectionHandler(sectionService)
	profileHandler := NewProfileHandler(preferencesService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Profile ---
		protected.GET("/me", profileHandler.Me)
		protected.PATCH("/me", profileHandler.UpdateProfile)
		protected.GET("/preferences", profileHandler.GetPreferences)
		protected.PUT("/preferences", profileHandler.SavePreferences)

		protected.GET("/overview", planHandler.Overview)
		protected.GET("/dashboard", planHandler.Dashboard)

		// --- Months ---
		months := protected.Group("/months")
		{
			months.GET("", planHandler.ListMonths)
			months.POST("", planHandler.CreateMonth)
			months.GET("/:id", planHandler.GetMonth)
			months.PATCH("/:id", planHandler.UpdateMonth)
			months.DELETE("/:id", planHandler.Delete(domain.TierMonth))
			months.GET("/:id/weeks", planHandler.MonthTree)
			months.POST("/:id/weeks", planHandler.CreateWeek)
		}

		// --- Weeks ---
		weeks := protected.Group("/weeks")
		{
			weeks.GET("/:id", planHandler.GetWeek)
			weeks.PATCH("/:id", planHandler.UpdateWeek)
			weeks.DELETE("/:id", planHandler.Delete(domain.TierWeek))
			weeks.GET("/:id/days", planHandler.WeekDays)
			weeks.POST("/:id/days", planHandler.CreateDay)
		}

		// --- Days and Sections ---
		days := protected.Group("/days")
		{
			days.GET("/:id", planHandler.DayDetail)
			days.PATCH("/:id", planHandler.UpdateDay)
			days.DELETE("/:id", planHandler.Delete(domain.TierDay))
			days.PUT("/:id/sections/:index", sectionHandler.UpsertSection)
			days.POST("/:id/sections/:index/sketch-upload", sectionHandler.RequestSketchUpload)
			days.POST("/:id/sections/:index/sketch", sectionHandler.ConfirmSketch)
		}

		// --- Generation ---
		// :tier accepts the technical name or the display label.
		protected.POST("/plans/:tier/:id/generate", generationHandler.Generate)
		protected.GET("/plans/:tier/:id/generation", generationHandler.GenerationStatus)
	}
}
