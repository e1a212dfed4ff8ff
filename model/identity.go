package model

// Identity 外部用户实体，只读引用
type Identity struct {
	ID     uint   `json:"id"`
	Handle string `json:"handle"`
}
