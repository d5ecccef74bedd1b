package api

import (
	"github.com/gin-gonic/gin"

	"github.com/cardwall/cardwall/internal/board/service"
	"github.com/cardwall/cardwall/internal/common/logger"
)

// SetupRoutes configures the board API routes
func SetupRoutes(router *gin.RouterGroup, svc *service.Service, log *logger.Logger) {
	handler := NewHandler(svc, log)

	// Board routes
	boards := router.Group("/boards")
	{
		boards.POST("", handler.CreateBoard)
		boards.GET("", handler.ListBoards)
		boards.GET("/:boardId", handler.GetBoard)
		boards.GET("/:boardId/full", handler.GetBoardSnapshot)
		boards.PUT("/:boardId", handler.UpdateBoard)
		boards.DELETE("/:boardId", handler.DeleteBoard)

		// Board sub-resources
		boards.POST("/:boardId/lists", handler.CreateList)
		boards.GET("/:boardId/lists", handler.ListLists)
		boards.POST("/:boardId/members", handler.AddMember)
		boards.GET("/:boardId/members", handler.ListMembers)
		boards.GET("/:boardId/members/search", handler.ListMembers)
		boards.DELETE("/:boardId/members/:userId", handler.RemoveMember)
		boards.GET("/:boardId/activity", handler.ListActivity)
	}

	// List routes
	lists := router.Group("/lists")
	{
		lists.GET("/:listId", handler.GetList)
		lists.PUT("/:listId", handler.UpdateList)
		lists.DELETE("/:listId", handler.DeleteList)
		lists.PUT("/:listId/move", handler.MoveList)
		lists.POST("/:listId/tasks", handler.CreateTask)
		lists.GET("/:listId/tasks", handler.ListTasks)
	}

	// Task routes
	tasks := router.Group("/tasks")
	{
		tasks.GET("/:taskId", handler.GetTask)
		tasks.PUT("/:taskId", handler.UpdateTask)
		tasks.DELETE("/:taskId", handler.DeleteTask)
		tasks.PUT("/:taskId/move", handler.MoveTask)
	}
}
