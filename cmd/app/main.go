package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"tripchat/cmd/fx/callback_fx"
	"tripchat/cmd/fx/chat_fx"
	"tripchat/cmd/fx/db_fx"
	"tripchat/cmd/fx/llm_fx"
	"tripchat/cmd/fx/places_fx"
	"tripchat/cmd/fx/session_fx"
	"tripchat/internal/api/controllers"
	"tripchat/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := fx.New(
		db_fx.Module,
		llm_fx.Module,
		places_fx.Module,
		session_fx.Module,
		callback_fx.Module,
		chat_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Println("Starting HTTP server at :" + port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(chatController *controllers.ChatController) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, chatController)

	return r
}

func RegisterRoutes(r *gin.Engine, chatController *controllers.ChatController) {
	api := r.Group("/")
	api.Use(middleware.JWTAuthMiddleware())
	chatController.RegisterRoutes(api)
}
