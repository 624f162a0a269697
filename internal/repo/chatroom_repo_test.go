package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moodlink/go-social-backend/internal/domain"
)

func newRoomRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("room_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.ChatRoom{}, &domain.Membership{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestProvisionMatch_CreatesRoomAndTwoPendingMembers(t *testing.T) {
	db := newRoomRepoDB(t)
	a := seedUser(t, db, "a", "a@x", 1)
	b := seedUser(t, db, "b", "b@x", 1)

	room, err := ProvisionMatch(context.Background(), db, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ProvisionMatch: %v", err)
	}
	if room == nil || room.ID == 0 {
		t.Fatalf("expected persisted room, got %+v", room)
	}
	if room.Deleted {
		t.Fatalf("new room must not be marked deleted")
	}

	members, err := RoomMembers(context.Background(), db, room.ID)
	if err != nil {
		t.Fatalf("RoomMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected exactly 2 memberships, got %d", len(members))
	}
	if members[0].UserID != a.ID || members[1].UserID != b.ID {
		t.Fatalf("unexpected members: %#v", members)
	}
	for _, m := range members {
		if m.Valid != domain.MembershipPending {
			t.Fatalf("membership must start pending: %+v", m)
		}
	}
}

func TestProvisionMatch_RollsBackOnMembershipFailure(t *testing.T) {
	db := newRoomRepoDB(t)
	a := seedUser(t, db, "a", "a@x", 1)
	b := seedUser(t, db, "b", "b@x", 1)

	// Dropping the membership table makes the second insert of the
	// transaction fail; the room insert must be rolled back with it.
	if err := db.Migrator().DropTable(&domain.Membership{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	if _, err := ProvisionMatch(context.Background(), db, a.ID, b.ID); err == nil {
		t.Fatalf("expected error from failed membership insert")
	}

	var rooms int64
	if err := db.Model(&domain.ChatRoom{}).Count(&rooms).Error; err != nil {
		t.Fatalf("count rooms: %v", err)
	}
	if rooms != 0 {
		t.Fatalf("room insert must roll back, found %d rooms", rooms)
	}
}

func TestCountPendingMemberships(t *testing.T) {
	db := newRoomRepoDB(t)
	a := seedUser(t, db, "a", "a@x", 1)
	b := seedUser(t, db, "b", "b@x", 1)

	n, err := CountPendingMemberships(context.Background(), db, a.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 pending, got n=%d err=%v", n, err)
	}

	if _, err := ProvisionMatch(context.Background(), db, a.ID, b.ID); err != nil {
		t.Fatalf("ProvisionMatch: %v", err)
	}

	n, err = CountPendingMemberships(context.Background(), db, a.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 pending, got n=%d err=%v", n, err)
	}

	// Accepted rows are no longer pending.
	if err := db.Model(&domain.Membership{}).
		Where("user_id = ?", a.ID).
		Update("valid", domain.MembershipAccepted).Error; err != nil {
		t.Fatalf("accept membership: %v", err)
	}
	n, err = CountPendingMemberships(context.Background(), db, a.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 pending after accept, got n=%d err=%v", n, err)
	}
}

func TestListMemberships_NewestRoomFirst(t *testing.T) {
	db := newRoomRepoDB(t)
	a := seedUser(t, db, "a", "a@x", 1)
	b := seedUser(t, db, "b", "b@x", 1)

	r1, err := ProvisionMatch(context.Background(), db, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ProvisionMatch r1: %v", err)
	}
	r2, err := ProvisionMatch(context.Background(), db, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ProvisionMatch r2: %v", err)
	}

	list, err := ListMemberships(context.Background(), db, a.ID)
	if err != nil {
		t.Fatalf("ListMemberships: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(list))
	}
	if list[0].ChatRoomID != r2.ID || list[1].ChatRoomID != r1.ID {
		t.Fatalf("expected newest room first: %#v", list)
	}
}
