package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agriaid/services"
)

type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"topk"`
}

type ChatResponse struct {
	Answer  string                     `json:"answer"`
	Sources []services.QuestionSummary `json:"sources"`
}

// AskAssistant answers a farming question with the AI assistant, grounded on
// matching forum threads.
func AskAssistant(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	ans, sources, err := chatSvc.Ask(req.Question, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Answer: ans, Sources: sources})
}
