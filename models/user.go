package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username    string `gorm:"uniqueIndex;size:64" json:"username"`
	Password    string `json:"-"`
	DisplayName string `gorm:"size:128" json:"displayName"`
}

// Identity 返回用于变更操作的身份快照
func (u *User) Identity() Identity {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return Identity{ID: u.Username, DisplayName: name}
}
