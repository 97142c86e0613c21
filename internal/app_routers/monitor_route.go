package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Deepakk2104/Zync/internal/configuration"
)

func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorRoute := router.Group("/zync/api/monitor")
	{
		monitorRoute.GET("/stats", container.MonitorHandler.GetHubStats)
	}
}
