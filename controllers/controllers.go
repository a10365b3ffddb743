package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agriaid/errorz"
	"agriaid/models"
	"agriaid/services"
	"agriaid/store"
)

var (
	forumSvc  *services.ForumService
	cache     *services.QuestionCache
	authSvc   *services.AuthService
	gate      services.SessionGate
	chatSvc   *services.ChatService
	predictor *services.CropPredictor
	docStore  store.Store
)

// Init wires the handler package. Called once from main before the router
// is built.
func Init(forum *services.ForumService, c *services.QuestionCache, auth *services.AuthService,
	chat *services.ChatService, pred *services.CropPredictor, st store.Store) {
	forumSvc = forum
	cache = c
	authSvc = auth
	gate = auth
	chatSvc = chat
	predictor = pred
	docStore = st
}

func currentIdentity(ctx *gin.Context) models.Identity {
	v, ok := ctx.Get("identity")
	if !ok {
		return models.Identity{}
	}
	ident, _ := v.(models.Identity)
	return ident
}

// fail maps an error class to an HTTP status.
func fail(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errorz.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, errorz.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errorz.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errorz.ErrAlreadyLiked):
		status = http.StatusConflict
	case errors.Is(err, errorz.ErrTransport):
		status = http.StatusBadGateway
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}
