package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTenantID 未配置多站点时使用的站点 ID
const DefaultTenantID uint = 1

// Relationship 用户关系表（from -> to，某一状态，某一站点）
type Relationship struct {
	ID             uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	FromIdentityID uint                `json:"from_identity_id" gorm:"not null;uniqueIndex:idx_relationship_unique,priority:1"`
	ToIdentityID   uint                `json:"to_identity_id" gorm:"not null;index;uniqueIndex:idx_relationship_unique,priority:2"`
	StatusID       uint                `json:"status_id" gorm:"not null;index;uniqueIndex:idx_relationship_unique,priority:3"`
	Status         *RelationshipStatus `json:"status,omitempty" gorm:"foreignKey:StatusID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	TenantID       uint                `json:"tenant_id" gorm:"not null;default:1;uniqueIndex:idx_relationship_unique,priority:4"`
	Weight         *float64            `json:"weight,omitempty" gorm:"default:1"`
	ExtraData      json.RawMessage     `json:"extra_data,omitempty" gorm:"type:jsonb"` // 不做解析，原样保存
	CreatedAt      time.Time           `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Relationship) TableName() string {
	return "relationship"
}

// BeforeCreate 生成主键
func (r *Relationship) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// OwnedBy 关系的任一端都视为拥有者
func (r *Relationship) OwnedBy(identityID uint) bool {
	return r.FromIdentityID == identityID || r.ToIdentityID == identityID
}
