package model

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigRevision records one accepted host configuration commit
type ConfigRevision struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Fields    datatypes.JSONMap `gorm:"column:fields;not null" json:"fields"`
	UserCount int               `gorm:"column:user_count;not null;default:0" json:"userCount"`
	Actor     string            `gorm:"column:actor;type:varchar(64)" json:"actor"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

// TableName specifies the table name for ConfigRevision
func (ConfigRevision) TableName() string {
	return "config_revisions"
}
