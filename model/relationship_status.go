package model

// 默认状态的 from_slug
const (
	SlugFollowing = "following"
	SlugBlocking  = "blocking"
)

// RelationshipStatus 关系状态定义（目录表）
type RelationshipStatus struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"type:varchar(100);not null"`
	Verb            string `json:"verb" gorm:"type:varchar(100);not null;uniqueIndex"`
	FromSlug        string `json:"from_slug" gorm:"type:varchar(100);not null;uniqueIndex"`        // 发起方视角，如 following
	ToSlug          string `json:"to_slug" gorm:"type:varchar(100);not null;uniqueIndex"`          // 目标方视角，如 followers
	SymmetricalSlug string `json:"symmetrical_slug" gorm:"type:varchar(100);not null;uniqueIndex"` // 双向视角，如 friends
	LoginRequired   bool   `json:"login_required" gorm:"not null;default:false"`
	Private         bool   `json:"private" gorm:"not null;default:false"` // 仅本人可查看
}

func (RelationshipStatus) TableName() string {
	return "relationship_status"
}

// Slugs 返回三个 slug（from, to, symmetrical）
func (s RelationshipStatus) Slugs() []string {
	return []string{s.FromSlug, s.ToSlug, s.SymmetricalSlug}
}

func (s RelationshipStatus) String() string {
	return s.Name
}

// Visible 判断请求者能否查看 owner 在该状态下的关系列表
// 核心层只保存标志位，由调用方（展示层）决定是否使用
func (s RelationshipStatus) Visible(ownerID, requesterID uint, authenticated bool) bool {
	if s.LoginRequired && !authenticated {
		return false
	}
	if s.Private && (!authenticated || requesterID != ownerID) {
		return false
	}
	return true
}

// DefaultStatuses 默认部署需要的状态
func DefaultStatuses() []RelationshipStatus {
	return []RelationshipStatus{
		{
			Name:            "Following",
			Verb:            "follow",
			FromSlug:        SlugFollowing,
			ToSlug:          "followers",
			SymmetricalSlug: "friends",
		},
		{
			Name:            "Blocking",
			Verb:            "block",
			FromSlug:        SlugBlocking,
			ToSlug:          "blockers",
			SymmetricalSlug: "!",
			LoginRequired:   true,
			Private:         true,
		},
	}
}
