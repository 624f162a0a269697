package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
)

// ----- Fake repo -----

type fakeRelRepo struct {
	befriendA, befriendB uint
	befriendErr          error

	friends    []repo.FriendSummary
	friendsErr error

	withStatusUserID uint
	withStatusStatus int
	withStatus       []repo.FriendSummary
	withStatusErr    error

	favOwner, favTarget uint
	favErr              error

	favorites    []repo.FriendSummary
	favoritesErr error

	getUser *domain.User
	getErr  error

	memberships []domain.Membership
	membErr     error
}

func (r *fakeRelRepo) CreateFriendship(ctx context.Context, db *gorm.DB, a, b uint) error {
	r.befriendA, r.befriendB = a, b
	return r.befriendErr
}

func (r *fakeRelRepo) ListFriends(ctx context.Context, db *gorm.DB, userID uint) ([]repo.FriendSummary, error) {
	return r.friends, r.friendsErr
}

func (r *fakeRelRepo) ListFriendsWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) ([]repo.FriendSummary, error) {
	r.withStatusUserID, r.withStatusStatus = userID, status
	return r.withStatus, r.withStatusErr
}

func (r *fakeRelRepo) CreateFavorite(ctx context.Context, db *gorm.DB, owner, target uint) error {
	r.favOwner, r.favTarget = owner, target
	return r.favErr
}

func (r *fakeRelRepo) ListFavorites(ctx context.Context, db *gorm.DB, ownerID uint) ([]repo.FriendSummary, error) {
	return r.favorites, r.favoritesErr
}

func (r *fakeRelRepo) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return r.getUser, r.getErr
}

func (r *fakeRelRepo) ListMemberships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Membership, error) {
	return r.memberships, r.membErr
}

// ----- Tests -----

func TestBefriend_RejectsSelf(t *testing.T) {
	r := &fakeRelRepo{}
	s := NewRelationshipService(nil, r)

	if err := s.Befriend(context.Background(), 4, 4); !errors.Is(err, ErrSelfRelation) {
		t.Fatalf("expected ErrSelfRelation, got %v", err)
	}
	if r.befriendA != 0 || r.befriendB != 0 {
		t.Fatalf("repo must not be touched on self edge")
	}
}

func TestBefriend_MapsNotFound(t *testing.T) {
	r := &fakeRelRepo{befriendErr: gorm.ErrRecordNotFound}
	s := NewRelationshipService(nil, r)

	if err := s.Befriend(context.Background(), 1, 2); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestBefriend_Success_PassesBothIDs(t *testing.T) {
	r := &fakeRelRepo{}
	s := NewRelationshipService(nil, r)

	if err := s.Befriend(context.Background(), 1, 2); err != nil {
		t.Fatalf("Befriend: %v", err)
	}
	if r.befriendA != 1 || r.befriendB != 2 {
		t.Fatalf("unexpected args: a=%d b=%d", r.befriendA, r.befriendB)
	}
}

func TestFavorite_RejectsSelf_And_MapsNotFound(t *testing.T) {
	s := NewRelationshipService(nil, &fakeRelRepo{})
	if err := s.Favorite(context.Background(), 7, 7); !errors.Is(err, ErrSelfRelation) {
		t.Fatalf("expected ErrSelfRelation, got %v", err)
	}

	s = NewRelationshipService(nil, &fakeRelRepo{favErr: gorm.ErrRecordNotFound})
	if err := s.Favorite(context.Background(), 7, 8); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRecommend_UsesStoredStatus(t *testing.T) {
	r := &fakeRelRepo{
		getUser:    &domain.User{ID: 3, Status: 6},
		withStatus: []repo.FriendSummary{{ID: 4, Status: 6}},
	}
	s := NewRelationshipService(nil, r)

	out, err := s.Recommend(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if r.withStatusUserID != 3 || r.withStatusStatus != 6 {
		t.Fatalf("predicate args wrong: user=%d status=%d", r.withStatusUserID, r.withStatusStatus)
	}
	if len(out) != 1 || out[0].ID != 4 {
		t.Fatalf("unexpected recommendations: %#v", out)
	}
}

func TestRecommend_UnknownUser(t *testing.T) {
	r := &fakeRelRepo{getErr: gorm.ErrRecordNotFound}
	s := NewRelationshipService(nil, r)

	if _, err := s.Recommend(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemberships_PassThrough(t *testing.T) {
	r := &fakeRelRepo{memberships: []domain.Membership{{ChatRoomID: 1, UserID: 3}}}
	s := NewRelationshipService(nil, r)

	out, err := s.Memberships(context.Background(), 3)
	if err != nil || len(out) != 1 || out[0].ChatRoomID != 1 {
		t.Fatalf("unexpected memberships: %#v err=%v", out, err)
	}
}
