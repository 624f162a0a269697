package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
)

// ----- Fakes -----

type fakeProfileRepo struct {
	stored *domain.User
	getErr error

	updated   *domain.User
	updateErr error
}

func (r *fakeProfileRepo) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return r.stored, r.getErr
}

func (r *fakeProfileRepo) UpdateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	cp := *u
	r.updated = &cp
	return r.updateErr
}

type fakeMatcher struct {
	calls  int
	userID uint
	status int
	result *MatchResult
	err    error
}

func (m *fakeMatcher) TryMatch(ctx context.Context, userID uint, status int) (*MatchResult, error) {
	m.calls++
	m.userID, m.status = userID, status
	return m.result, m.err
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func baseUser() *domain.User {
	return &domain.User{
		ID:              7,
		Handle:          "old",
		DisplayName:     "Old Name",
		Email:           "old@x",
		HashedPassword:  sha256hex("oldpw"),
		Status:          1,
		StatusChangedAt: "2026/01/01",
	}
}

// ----- Tests -----

func TestUpdate_NilFieldsKeepStoredValues(t *testing.T) {
	r := &fakeProfileRepo{stored: baseUser()}
	m := &fakeMatcher{}
	s := NewProfileService(nil, r, m)

	u, match, err := s.Update(context.Background(), 7, ProfilePatch{
		DisplayName: strPtr("New Name"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.DisplayName != "New Name" {
		t.Fatalf("display name not applied: %+v", u)
	}
	if u.Handle != "old" || u.Email != "old@x" || u.Status != 1 {
		t.Fatalf("nil fields must keep stored values: %+v", u)
	}
	if u.StatusChangedAt != "2026/01/01" {
		t.Fatalf("status date must not change without a transition: %q", u.StatusChangedAt)
	}
	if match != nil {
		t.Fatalf("no match expected without status change")
	}
	if m.calls != 0 {
		t.Fatalf("matcher must not run without a status transition")
	}
}

func TestUpdate_SecretIsRehashed(t *testing.T) {
	r := &fakeProfileRepo{stored: baseUser()}
	s := NewProfileService(nil, r, &fakeMatcher{})

	u, _, err := s.Update(context.Background(), 7, ProfilePatch{Secret: strPtr("newpw")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.HashedPassword != sha256hex("newpw") {
		t.Fatalf("secret not rehashed: %q", u.HashedPassword)
	}
}

func TestUpdate_StatusTransition_StampsDateAndRunsMatcher(t *testing.T) {
	r := &fakeProfileRepo{stored: baseUser()}
	want := &MatchResult{Room: &domain.ChatRoom{ID: 11}, Friend: &repo.FriendSummary{ID: 4}}
	m := &fakeMatcher{result: want}
	s := NewProfileService(nil, r, m)
	s.Now = func() time.Time { return time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC) }

	u, match, err := s.Update(context.Background(), 7, ProfilePatch{Status: intPtr(5)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Status != 5 || u.StatusChangedAt != "2026/08/30" {
		t.Fatalf("transition not stamped: %+v", u)
	}
	if m.calls != 1 || m.userID != 7 || m.status != 5 {
		t.Fatalf("matcher args wrong: %+v", m)
	}
	if match != want {
		t.Fatalf("match result not returned: %+v", match)
	}
	// Persisted record carries the stamp too.
	if r.updated == nil || r.updated.StatusChangedAt != "2026/08/30" {
		t.Fatalf("persisted record missing stamp: %+v", r.updated)
	}
}

func TestUpdate_SameStatusValue_NoTransition(t *testing.T) {
	r := &fakeProfileRepo{stored: baseUser()}
	m := &fakeMatcher{}
	s := NewProfileService(nil, r, m)

	// Writing the value already stored is not a transition.
	u, _, err := s.Update(context.Background(), 7, ProfilePatch{Status: intPtr(1)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.StatusChangedAt != "2026/01/01" {
		t.Fatalf("date must be untouched: %q", u.StatusChangedAt)
	}
	if m.calls != 0 {
		t.Fatalf("matcher must not run for a no-op status write")
	}
}

func TestUpdate_MatcherErrorDoesNotFailUpdate(t *testing.T) {
	r := &fakeProfileRepo{stored: baseUser()}
	m := &fakeMatcher{err: errors.New("provisioning broke")}
	s := NewProfileService(nil, r, m)

	u, match, err := s.Update(context.Background(), 7, ProfilePatch{Status: intPtr(9)})
	if err != nil {
		t.Fatalf("update must survive matcher failure: %v", err)
	}
	if u == nil || u.Status != 9 {
		t.Fatalf("updated user must be returned: %+v", u)
	}
	if match != nil {
		t.Fatalf("failed match must surface as empty result")
	}
}

func TestUpdate_UnknownUser(t *testing.T) {
	r := &fakeProfileRepo{getErr: gorm.ErrRecordNotFound}
	s := NewProfileService(nil, r, &fakeMatcher{})

	if _, _, err := s.Update(context.Background(), 404, ProfilePatch{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdate_PersistErrorAbortsBeforeMatcher(t *testing.T) {
	r := &fakeProfileRepo{stored: baseUser(), updateErr: errors.New("disk full")}
	m := &fakeMatcher{}
	s := NewProfileService(nil, r, m)

	if _, _, err := s.Update(context.Background(), 7, ProfilePatch{Status: intPtr(2)}); err == nil {
		t.Fatalf("expected persistence error")
	}
	if m.calls != 0 {
		t.Fatalf("matcher must never run after a failed write")
	}
}
