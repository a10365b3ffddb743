package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"agriaid/controllers"
	"agriaid/middlewares"
	"agriaid/services"
)

func SetupRouter(gate services.SessionGate) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173", "https://agri-aid-kappa.vercel.app"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")

	api.GET("/health", controllers.Health)
	api.POST("/auth/register", controllers.Register)
	api.POST("/auth/login", controllers.Login)
	// websocket feed authenticates via query token
	api.GET("/ws/questions", controllers.QuestionsFeed)

	authed := api.Group("", middlewares.Auth(gate))
	{
		authed.POST("/auth/logout", controllers.Logout)
		authed.GET("/questions", controllers.GetQuestions)
		authed.POST("/questions", controllers.CreateQuestion)
		authed.POST("/questions/:id/answers", controllers.CreateAnswer)
		authed.POST("/questions/:id/like", controllers.LikeQuestion)
		authed.GET("/questions/:id/likes", controllers.GetQuestionLikes)
		authed.GET("/rank/questions", controllers.GetTopQuestions)
		authed.POST("/chat", controllers.AskAssistant)
		authed.POST("/predict", controllers.RecommendCrop)
	}

	return r
}
