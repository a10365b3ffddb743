package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

func Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ident, err := authSvc.Register(req.Username, req.Password, req.DisplayName)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token, "user": ident})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ident, err := authSvc.Login(req.Username, req.Password)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token, "user": ident})
}

func Logout(ctx *gin.Context) {
	if err := authSvc.Logout(BearerToken(ctx)); err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(ctx *gin.Context) string {
	auth := ctx.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))
}
