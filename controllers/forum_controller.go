package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"

	"agriaid/errorz"
	"agriaid/global"
	"agriaid/models"
	"agriaid/services"
)

// GetQuestions returns the cached snapshot filtered by search term and
// category. Reads never hit the remote store; the change feed keeps the
// cache current.
func GetQuestions(ctx *gin.Context) {
	search := ctx.Query("search")
	category := ctx.DefaultQuery("category", "all")
	questions := services.FilterQuestions(cache.Snapshot(), search, category)
	ctx.JSON(http.StatusOK, gin.H{"questions": questions})
}

type newQuestionRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
}

func CreateQuestion(ctx *gin.Context) {
	var req newQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := forumSvc.CreateQuestion(ctx.Request.Context(), currentIdentity(ctx), req.Title, req.Content, req.Category)
	if err != nil {
		fail(ctx, err)
		return
	}
	// the write is durably accepted; it shows up in the next feed emission
	ctx.JSON(http.StatusCreated, gin.H{"id": id})
}

type newAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}

func CreateAnswer(ctx *gin.Context) {
	var req newAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ans, err := forumSvc.AppendAnswer(ctx.Request.Context(), currentIdentity(ctx), ctx.Param("id"), req.Content)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"answer": ans})
}

// LikeQuestion: 核心去重走 likedBy 集合；Redis 计数与排行、MySQL 点赞记录
// 仅作为附加的统计通道（当前为同步写入，生产可改为 MQ 异步）
func LikeQuestion(ctx *gin.Context) {
	questionID := ctx.Param("id")
	ident := currentIdentity(ctx)

	likeKey := "question:" + questionID + ":likes"
	rankKey := "rank:question:likes"

	err := forumSvc.ToggleLike(ctx.Request.Context(), ident, questionID)
	if errors.Is(err, errorz.ErrAlreadyLiked) {
		// 已点赞，返回当前点赞数
		likesStr := "0"
		if global.RedisDB != nil {
			if v, err := global.RedisDB.Get(likeKey).Result(); err == nil {
				likesStr = v
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"message": "already liked", "likes": likesStr})
		return
	}
	if err != nil {
		fail(ctx, err)
		return
	}

	var likes int64
	if global.RedisDB != nil {
		// 使用 pipeline 同步执行 INCR + ZINCRBY
		pipe := global.RedisDB.TxPipeline()
		incrCmd := pipe.Incr(likeKey)
		pipe.ZIncrBy(rankKey, 1, questionID)
		if _, err := pipe.Exec(); err != nil {
			log.Printf("update like counters: %v", err)
		} else {
			likes = incrCmd.Val()
		}
	}

	like := models.Like{UserID: ident.ID, QuestionID: questionID}
	if global.Db != nil {
		if err := global.Db.Create(&like).Error; err != nil {
			// 记录失败不影响主流程
			ctx.JSON(http.StatusOK, gin.H{"message": "liked (db record failed)", "likes": likes, "db_error": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Successfully liked the question", "likes": likes})
}

// GetQuestionLikes: 从 Redis 获取单个问题点赞数
func GetQuestionLikes(ctx *gin.Context) {
	questionID := ctx.Param("id")

	likeKey := "question:" + questionID + ":likes"

	if global.RedisDB == nil {
		ctx.JSON(http.StatusOK, gin.H{"likes": "0"})
		return
	}

	likes, err := global.RedisDB.Get(likeKey).Result()

	if err == redis.Nil {
		likes = "0"
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"likes": likes})
}

// GetTopQuestions: 返回 Top N 排行（从 Redis ZSET 获取，标题从本地快照补全）
func GetTopQuestions(ctx *gin.Context) {
	topStr := ctx.DefaultQuery("top", "10")
	top, err := strconv.Atoi(topStr)
	if err != nil || top <= 0 {
		top = 10
	}

	if global.RedisDB == nil {
		ctx.JSON(http.StatusOK, gin.H{"list": []string{}})
		return
	}

	rankKey := "rank:question:likes"
	zres, err := global.RedisDB.ZRevRangeWithScores(rankKey, 0, int64(top-1)).Result()
	if err != nil {
		if err == redis.Nil {
			ctx.JSON(http.StatusOK, gin.H{"list": []string{}})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]map[string]interface{}, 0, len(zres))
	for idx, z := range zres {
		memberStr, _ := z.Member.(string)
		score := int64(z.Score)
		item := map[string]interface{}{"id": memberStr, "score": score, "rank": idx + 1}
		if q, ok := cache.Get(memberStr); ok {
			item["title"] = q.Title
		}
		list = append(list, item)
	}

	ctx.JSON(http.StatusOK, gin.H{"list": list})
}
