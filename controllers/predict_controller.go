package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agriaid/services"
)

// RecommendCrop proxies environmental readings to the crop recommendation
// service.
func RecommendCrop(c *gin.Context) {
	var req services.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	crop, err := predictor.Recommend(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"crop": crop})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
