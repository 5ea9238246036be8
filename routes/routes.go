package routes

import (
	"net/http"

	"talktrack-backend/config"
	"talktrack-backend/controllers"
	"talktrack-backend/logging"
	"talktrack-backend/metrics"
	"talktrack-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router wires into handlers and middleware.
type Deps struct {
	Handler     *controllers.Handler
	JWTSecret   string
	CORSOrigins []string
	RateLimiter *utils.RateLimiter
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	allowed := make(map[string]bool, len(d.CORSOrigins))
	for _, o := range d.CORSOrigins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger(d.Logger, d.Metrics))

	h := d.Handler
	authMW := utils.AuthMiddleware(d.JWTSecret)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", authMW, h.Me)
	}

	public := r.Group("/public", utils.RateLimit(d.RateLimiter, "public"))
	{
		public.GET("/forms/:shareURL", h.GetPublicForm)
		public.POST("/forms/:shareURL/details", h.StartSubmission)
		public.POST("/forms/:shareURL/submit", h.SubmitForm)
	}
	submit := r.Group("/submit", utils.RateLimit(d.RateLimiter, "submit"))
	{
		submit.GET("/:shareURL", h.SubmitPage)
		submit.POST("/:shareURL", h.SubmitPageForm)
	}

	api := r.Group("/api")
	api.Use(authMW)
	{
		api.GET("/elements", h.GetElements)

		business := api.Group("/business")
		{
			business.POST("", h.CreateBusiness)
			business.GET("", h.GetBusiness)
			business.PUT("", h.UpdateBusiness)
			business.POST("/logo", h.UploadLogo)
		}

		forms := api.Group("/forms")
		{
			forms.POST("", h.CreateForm)
			forms.GET("", h.GetForms)
			forms.GET("/:id", h.GetForm)
			forms.PUT("/:id/content", h.UpdateFormContent)
			forms.POST("/:id/publish", h.PublishForm)
			forms.DELETE("/:id", h.DeleteForm)
			forms.POST("/:id/designer", h.OpenDesigner)
		}

		designer := api.Group("/designer/:sid")
		{
			designer.GET("", h.GetDesigner)
			designer.DELETE("", h.CloseDesigner)
			designer.POST("/save", h.SaveDesigner)
			designer.POST("/elements", h.AddElement)
			designer.PATCH("/elements/:eid", h.UpdateElement)
			designer.DELETE("/elements/:eid", h.RemoveElement)
			designer.POST("/elements/:eid/move", h.MoveElement)
			designer.POST("/select", h.SelectElement)
			designer.POST("/drag/start", h.DragStart)
			designer.POST("/drag/move", h.DragMove)
			designer.POST("/drag/over", h.DragOver)
			designer.POST("/drag/end", h.DragEnd)
			designer.POST("/drag/cancel", h.DragCancel)
		}

		appointments := api.Group("/appointments")
		{
			appointments.GET("", h.GetAppointments)
			appointments.GET("/:id", h.GetAppointment)
			appointments.POST("/:id/schedule", h.ScheduleAppointment)
			appointments.POST("/:id/cancel", h.CancelAppointment)
			appointments.DELETE("/:id", h.DeleteAppointment)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.GetNotifications)
			notifications.POST("/:id/read", h.MarkNotificationRead)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
		}

		stats := api.Group("/stats")
		{
			stats.GET("", h.GetStatsOverview)
			stats.GET("/forms/:shareURL", h.GetFormStats)
		}
	}

	return r
}
