package service

import (
	"context"
	"database/sql"

	"deeds_api/internal/common"
	"deeds_api/internal/domain/model"
	"deeds_api/internal/domain/repository"
)

// Function-backed repository fakes. Unset hooks answer with "not
// found" or a no-op so each test only wires what it exercises.

type fakeUserRepo struct {
	createFn                   func(ctx context.Context, user *model.User) (int64, error)
	findByEmailFn              func(ctx context.Context, email string) (*model.User, error)
	findByEmailWithCompletedFn func(ctx context.Context, email string) (*model.User, int, error)
	findByIDFn                 func(ctx context.Context, id int64) (*model.User, error)
	getProfileSummaryFn        func(ctx context.Context, userID int64) (*model.ProfileSummary, error)
	addCreditsFn               func(ctx context.Context, tx *sql.Tx, userID int64, amount int) error
	getLeaderboardFn           func(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	if f.createFn == nil {
		return 0, common.ErrInternalServer
	}
	return f.createFn(ctx, user)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.findByEmailFn == nil {
		return nil, common.ErrNotFound
	}
	return f.findByEmailFn(ctx, email)
}

func (f *fakeUserRepo) FindByEmailWithCompleted(ctx context.Context, email string) (*model.User, int, error) {
	if f.findByEmailWithCompletedFn == nil {
		return nil, 0, common.ErrNotFound
	}
	return f.findByEmailWithCompletedFn(ctx, email)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if f.findByIDFn == nil {
		return nil, common.ErrNotFound
	}
	return f.findByIDFn(ctx, id)
}

func (f *fakeUserRepo) GetProfileSummary(ctx context.Context, userID int64) (*model.ProfileSummary, error) {
	if f.getProfileSummaryFn == nil {
		return nil, common.ErrNotFound
	}
	return f.getProfileSummaryFn(ctx, userID)
}

func (f *fakeUserRepo) AddCredits(ctx context.Context, tx *sql.Tx, userID int64, amount int) error {
	if f.addCreditsFn == nil {
		return nil
	}
	return f.addCreditsFn(ctx, tx, userID, amount)
}

func (f *fakeUserRepo) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if f.getLeaderboardFn == nil {
		return []model.LeaderboardEntry{}, nil
	}
	return f.getLeaderboardFn(ctx, limit)
}

type fakeDeedRepo struct {
	createFn       func(ctx context.Context, deed *model.Deed) (int64, error)
	findByIDFn     func(ctx context.Context, id int64) (*model.Deed, error)
	listFn         func(ctx context.Context, filter repository.DeedFilter) ([]model.Deed, error)
	markVerifiedFn func(ctx context.Context, tx *sql.Tx, deedID int64, reward int) (int64, error)
	listCatalogFn  func(ctx context.Context) ([]model.CatalogEntry, error)
}

var _ repository.DeedRepository = (*fakeDeedRepo)(nil)

func (f *fakeDeedRepo) Create(ctx context.Context, deed *model.Deed) (int64, error) {
	if f.createFn == nil {
		return 0, common.ErrInternalServer
	}
	return f.createFn(ctx, deed)
}

func (f *fakeDeedRepo) FindByID(ctx context.Context, id int64) (*model.Deed, error) {
	if f.findByIDFn == nil {
		return nil, common.ErrNotFound
	}
	return f.findByIDFn(ctx, id)
}

func (f *fakeDeedRepo) List(ctx context.Context, filter repository.DeedFilter) ([]model.Deed, error) {
	if f.listFn == nil {
		return []model.Deed{}, nil
	}
	return f.listFn(ctx, filter)
}

func (f *fakeDeedRepo) MarkVerified(ctx context.Context, tx *sql.Tx, deedID int64, reward int) (int64, error) {
	if f.markVerifiedFn == nil {
		return 0, common.ErrInternalServer
	}
	return f.markVerifiedFn(ctx, tx, deedID, reward)
}

func (f *fakeDeedRepo) ListCatalog(ctx context.Context) ([]model.CatalogEntry, error) {
	if f.listCatalogFn == nil {
		return []model.CatalogEntry{}, nil
	}
	return f.listCatalogFn(ctx)
}
