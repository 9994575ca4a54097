package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"deeds_api/internal/common"
	"deeds_api/internal/common/security"
	"deeds_api/internal/domain/model"
	"deeds_api/internal/domain/repository"

	"github.com/gosimple/slug"
)

type DeedService struct {
	deedRepo     repository.DeedRepository
	userRepo     repository.UserRepository
	boardService *LeaderboardService
	db           *sql.DB // For transactions
}

func NewDeedService(
	deedRepo repository.DeedRepository,
	userRepo repository.UserRepository,
	boardService *LeaderboardService,
	db *sql.DB,
) *DeedService {
	return &DeedService{
		deedRepo:     deedRepo,
		userRepo:     userRepo,
		boardService: boardService,
		db:           db,
	}
}

type CreateDeedRequest struct {
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ProofURL    string `json:"proof_url"`
	Impact      string `json:"impact"`
	Duration    string `json:"duration"`
}

type CreateDeedResponse struct {
	Success bool             `json:"success"`
	DeedID  int64            `json:"deed_id"`
	Status  model.DeedStatus `json:"status"`
}

func (s *DeedService) CreateDeed(ctx context.Context, session *security.Session, req CreateDeedRequest) (*CreateDeedResponse, error) {
	if req.UserID <= 0 {
		return nil, fmt.Errorf("a valid user_id must be provided: %w", common.ErrValidation)
	}
	if session.UserID != req.UserID && !session.IsAdmin() {
		return nil, fmt.Errorf("you can only submit deeds for your own account: %w", common.ErrForbidden)
	}

	title := common.SanitizeText(req.Title)
	if title == "" {
		return nil, fmt.Errorf("a deed title is required: %w", common.ErrValidation)
	}

	proofURL, err := normalizeProofURL(req.ProofURL)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("we could not find that user account, please log in again: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	category := slug.Make(common.SanitizeText(req.Category))
	if category == "" {
		category = "general"
	}

	deed := &model.Deed{
		UserID:      req.UserID,
		Title:       title,
		Description: optionalText(req.Description),
		Category:    category,
		ProofURL:    proofURL,
		Status:      model.DeedStatusPending,
		Impact:      optionalText(req.Impact),
		Duration:    optionalText(req.Duration),
		CreatedAt:   time.Now().UTC(),
	}

	id, err := s.deedRepo.Create(ctx, deed)
	if err != nil {
		return nil, fmt.Errorf("failed to save deed: %w", err)
	}

	return &CreateDeedResponse{Success: true, DeedID: id, Status: model.DeedStatusPending}, nil
}

// normalizeProofURL distinguishes a missing proof link from a present
// but unparseable one; the two are separate validation failures.
func normalizeProofURL(value string) (string, error) {
	sanitized := common.SanitizeText(value)
	if sanitized == "" {
		return "", fmt.Errorf("a proof URL is required to submit your deed: %w", common.ErrValidation)
	}
	parsed, err := url.Parse(sanitized)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return "", fmt.Errorf("please provide a valid proof link, including http:// or https://: %w", common.ErrValidation)
	}
	return parsed.String(), nil
}

// ListDeeds applies the optional status and user filters. Non-admins
// are pinned to their own deeds; asking for another user's is refused.
func (s *DeedService) ListDeeds(ctx context.Context, session *security.Session, statusParam, userIDParam string) ([]model.Deed, error) {
	status := strings.ToLower(common.SanitizeText(statusParam))
	if status == "all" {
		status = ""
	}

	var requestedUserID int64
	if userIDParam != "" {
		if parsed, err := strconv.ParseInt(userIDParam, 10, 64); err == nil && parsed > 0 {
			requestedUserID = parsed
		}
	}

	filter := repository.DeedFilter{Status: status}
	if session.IsAdmin() {
		filter.UserID = requestedUserID
	} else {
		if requestedUserID > 0 && requestedUserID != session.UserID {
			return nil, fmt.Errorf("you can only view your own deeds: %w", common.ErrForbidden)
		}
		filter.UserID = session.UserID
	}

	deeds, err := s.deedRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deeds: %w", err)
	}
	return deeds, nil
}

type VerifiedDeed struct {
	ID     int64            `json:"id"`
	Status model.DeedStatus `json:"status"`
	Reward int              `json:"reward"`
}

type VerifyDeedResponse struct {
	Success bool                  `json:"success"`
	Deed    VerifiedDeed          `json:"deed"`
	Profile *model.ProfileSummary `json:"profile,omitempty"`
}

const defaultReward = 1

// VerifyDeed transitions a pending deed to verified and credits the
// owner's reward exactly once. The status flip and the credit
// increment commit together; the conditional update serializes
// concurrent verifiers so only one of them credits.
func (s *DeedService) VerifyDeed(ctx context.Context, deedID int64) (*VerifyDeedResponse, error) {
	if deedID <= 0 {
		return nil, fmt.Errorf("a valid deed_id must be provided: %w", common.ErrValidation)
	}

	deed, err := s.deedRepo.FindByID(ctx, deedID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("we couldn't find that deed: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load deed: %w", err)
	}
	if deed.Status == model.DeedStatusVerified {
		return nil, fmt.Errorf("this deed is already verified: %w", common.ErrConflict)
	}

	reward := defaultReward
	if deed.Reward != nil && *deed.Reward > 0 {
		reward = *deed.Reward
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	affected, err := s.deedRepo.MarkVerified(ctx, tx, deedID, reward)
	if err != nil {
		return nil, fmt.Errorf("failed to mark deed verified: %w", err)
	}
	if affected == 0 {
		// Another verifier won the transition between our read and
		// this update.
		return nil, fmt.Errorf("this deed is already verified: %w", common.ErrConflict)
	}

	if err := s.userRepo.AddCredits(ctx, tx, deed.UserID, reward); err != nil {
		return nil, fmt.Errorf("failed to credit deed owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verification: %w", err)
	}

	if s.boardService != nil {
		s.boardService.InvalidateCache(ctx)
	}

	summary, err := s.userRepo.GetProfileSummary(ctx, deed.UserID)
	if err != nil {
		// The verification itself committed; the summary is advisory.
		log.Printf("WARN: failed to load profile summary for user %d after verification: %v", deed.UserID, err)
		summary = nil
	}

	return &VerifyDeedResponse{
		Success: true,
		Deed:    VerifiedDeed{ID: deedID, Status: model.DeedStatusVerified, Reward: reward},
		Profile: summary,
	}, nil
}

func (s *DeedService) GetCatalog(ctx context.Context) ([]model.CatalogEntry, error) {
	entries, err := s.deedRepo.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load deed catalog: %w", err)
	}
	return entries, nil
}
