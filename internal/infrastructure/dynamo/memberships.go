package dynamo

import (
	"context"
	"time"

	"github.com/gym-api/internal/domain"
)

// MembershipRepo manages membership plans.
type MembershipRepo struct {
	db        DB
	tableName string
}

func NewMembershipRepo(db DB, tableName string) *MembershipRepo {
	return &MembershipRepo{db: db, tableName: tableName}
}

func (r *MembershipRepo) Put(ctx context.Context, m *domain.Membership) error {
	return putItem(ctx, r.db, r.tableName, m, "")
}

func (r *MembershipRepo) Get(ctx context.Context, membershipID string) (*domain.Membership, error) {
	return getItem[domain.Membership](ctx, r.db, r.tableName, strKey(attrMembershipID, membershipID), "membership")
}

func (r *MembershipRepo) List(ctx context.Context) ([]domain.Membership, error) {
	return scanAll[domain.Membership](ctx, r.db, r.tableName)
}

func (r *MembershipRepo) Update(ctx context.Context, membershipID string, updates map[string]interface{}) error {
	updates[attrUpdatedAt] = time.Now().UTC()
	return updateItem(ctx, r.db, r.tableName, strKey(attrMembershipID, membershipID), attrMembershipID, updates, "membership")
}

func (r *MembershipRepo) Delete(ctx context.Context, membershipID string) error {
	return deleteItem(ctx, r.db, r.tableName, strKey(attrMembershipID, membershipID), attrMembershipID, "membership")
}

// UserMembershipRepo links users to plans. PK: user_id, so Put is the
// join-or-switch upsert.
type UserMembershipRepo struct {
	db        DB
	tableName string
}

func NewUserMembershipRepo(db DB, tableName string) *UserMembershipRepo {
	return &UserMembershipRepo{db: db, tableName: tableName}
}

func (r *UserMembershipRepo) Put(ctx context.Context, um *domain.UserMembership) error {
	return putItem(ctx, r.db, r.tableName, um, "")
}

func (r *UserMembershipRepo) Get(ctx context.Context, userID string) (*domain.UserMembership, error) {
	return getItem[domain.UserMembership](ctx, r.db, r.tableName, strKey(attrUserID, userID), "user membership")
}

func (r *UserMembershipRepo) ListByMembership(ctx context.Context, membershipID string) ([]domain.UserMembership, error) {
	return queryIndex[domain.UserMembership](ctx, r.db, r.tableName, indexMembershipID, attrMembershipID, membershipID)
}

func (r *UserMembershipRepo) Delete(ctx context.Context, userID string) error {
	return deleteItem(ctx, r.db, r.tableName, strKey(attrUserID, userID), attrUserID, "user membership")
}
