package model

import "time"

// Presence status values. "online" means at least one live connection is
// attached to the user; "away" is only ever set explicitly.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// Roles
const (
	RoleAdmin          = "admin"
	RoleManager        = "manager"
	RoleEmployee       = "employee"
	RoleTeamLead       = "team_lead"
	RoleDepartmentHead = "department_head"
)

// User is the account master record. Presence fields (Status, LastSeen) are
// owned by the presence tracker and mutated via narrow field updates only.
type User struct {
	ID         string    `bson:"id" json:"id"`
	Username   string    `bson:"username" json:"username"`
	Email      string    `bson:"email" json:"email"`
	Password   string    `bson:"password" json:"-"` // bcrypt hash, never serialized
	FullName   string    `bson:"full_name" json:"full_name"`
	Role       string    `bson:"role" json:"role"`
	Department string    `bson:"department,omitempty" json:"department,omitempty"`
	Team       string    `bson:"team,omitempty" json:"team,omitempty"`
	Avatar     string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Status     string    `bson:"status" json:"status"`
	LastSeen   time.Time `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
	Points     int       `bson:"points" json:"points"`
	Level      int       `bson:"level" json:"level"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// PointTransaction is the append-only gamification ledger entry.
type PointTransaction struct {
	ID           string    `bson:"id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Points       int       `bson:"points" json:"points"`
	Reason       string    `bson:"reason" json:"reason"`
	ActivityType string    `bson:"activity_type" json:"activity_type"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// CalculateLevel is 100 points per level, starting at level 1.
func CalculateLevel(points int) int {
	return points/100 + 1
}
