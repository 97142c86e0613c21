package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Deepakk2104/Zync/internal/configuration"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/zync/api/chat")
	{
		chatRoute.POST("/sign-in", container.ChatHandler.SignIn)
		chatRoute.POST("/sign-out", container.ChatHandler.SignOut)

		chatRoute.GET("/users", container.ChatHandler.GetAllUsers)
		chatRoute.GET("/groups", container.ChatHandler.GetAllGroups)
		chatRoute.POST("/groups", container.ChatHandler.CreateGroup)

		chatRoute.POST("/send-direct", container.ChatHandler.SendDirect)
		chatRoute.POST("/send-group", container.ChatHandler.SendGroup)
		chatRoute.POST("/typing", container.ChatHandler.SetTyping)

		chatRoute.GET("/direct/:peerId/messages", container.ChatHandler.GetDirectMessages)
		chatRoute.GET("/groups/:groupId/messages", container.ChatHandler.GetGroupMessages)
	}
}
