package models

import "gorm.io/gorm"

// Like 表示用户对问题的点赞记录（用于持久化审计/去重/分析）
type Like struct {
	gorm.Model
	UserID     string `gorm:"index;size:64"`
	QuestionID string `gorm:"index;size:64"`
}
