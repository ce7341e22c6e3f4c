package model

// Role はワークスペース内での行為者の立場
type Role string

const (
	RoleClient Role = "client"
	RoleTalent Role = "talent"
	RoleSystem Role = "system"
)
