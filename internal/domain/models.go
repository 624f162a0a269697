// Package domain defines the persistence models for users, relationship
// edges, and chat rooms. These types are mapped with GORM and form the core
// data layer of the social backend.
package domain

import (
	"time"
)

// User is an account record. Status is an opaque small integer used as the
// matching key for chat-room auto-provisioning; StatusChangedAt records the
// day of the last status transition (date only, "2006/01/02").
//
// HashedPassword is never serialized: the credential hash must not leave the
// service layer.
type User struct {
	ID              uint      `json:"id"                gorm:"primaryKey;autoIncrement"`
	Handle          string    `json:"handle"            gorm:"type:varchar(64);not null;uniqueIndex:ux_users_handle"`
	DisplayName     string    `json:"display_name"      gorm:"type:varchar(255);not null"`
	Email           string    `json:"email"             gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	HashedPassword  string    `json:"-"                 gorm:"type:char(64);not null"`
	Status          int       `json:"status"            gorm:"not null;default:0;index:idx_users_status"`
	StatusChangedAt string    `json:"status_changed_at" gorm:"type:varchar(10)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// FriendEdge is one direction of a friendship. Friendships are symmetric:
// creating one inserts both (A,B) and (B,A) in a single transaction, so a
// reader never observes half a pair.
type FriendEdge struct {
	ID        uint      `json:"id"       gorm:"primaryKey;autoIncrement"`
	OwnerID   uint      `json:"owner_id" gorm:"not null;index:idx_friend_owner"`
	OtherID   uint      `json:"other_id" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for FriendEdge.
func (FriendEdge) TableName() string { return "friend_edges" }

// FavoriteEdge is a one-directional "owner favorites target" record. No
// symmetric counterpart is created.
type FavoriteEdge struct {
	ID        uint      `json:"id"        gorm:"primaryKey;autoIncrement"`
	OwnerID   uint      `json:"owner_id"  gorm:"not null;index:idx_favorite_owner"`
	TargetID  uint      `json:"target_id" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for FavoriteEdge.
func (FavoriteEdge) TableName() string { return "favorite_edges" }

// ChatRoom is a conversation container created when two friends' statuses
// match. Rooms are only created by the provisioner in this core; Deleted is
// reserved for later lifecycle handling.
type ChatRoom struct {
	ID        uint      `json:"id"      gorm:"primaryKey;autoIncrement"`
	Deleted   bool      `json:"deleted" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ChatRoom.
func (ChatRoom) TableName() string { return "chat_rooms" }

// Membership valid states. Only MembershipPending is written by this core;
// accepted/declined transitions belong to the chat product surface.
const (
	MembershipPending  = 0
	MembershipAccepted = 1
	MembershipDeclined = 2
)

// Membership links a user to a chat room. Valid=0 is a pending invitation.
// A room provisioned for a status match has exactly two memberships, both
// pending, one per matched user.
type Membership struct {
	ID         uint      `json:"id"           gorm:"primaryKey;autoIncrement"`
	ChatRoomID uint      `json:"chat_room_id" gorm:"not null;index:idx_member_room"`
	UserID     uint      `json:"user_id"      gorm:"not null;index:idx_member_user"`
	Valid      int       `json:"valid"        gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`

	// ChatRoom is the parent room. Memberships are cascade-deleted if the
	// room is removed.
	ChatRoom ChatRoom `json:"-" gorm:"foreignKey:ChatRoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Membership.
func (Membership) TableName() string { return "chat_room_members" }
