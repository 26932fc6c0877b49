// Package services holds the drop lifecycle operations that sit above the
// repositories: registration, deletion and admin tooling.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/allocation"
	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
	"github.com/dropkiosk/dropkiosk/kiosk/executor"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
)

var (
	ErrInvalidAdminToken = errors.New("invalid admin token")
	ErrCodeClash         = errors.New("code already registered to another drop")
)

var (
	datePattern      = regexp.MustCompile(`^\d{4}-(0[1-9]|1[012])-(0[1-9]|[12][0-9]|3[01])$`)
	urlPrefixPattern = regexp.MustCompile(`(?i)https?://.*/`)
	codePattern      = regexp.MustCompile(`^\w{1,42}$`)
)

// Registered drops stay queryable for a week past their stated expiry so
// organisers can still debug claims after the event.
const expiryGrace = 7 * 24 * time.Hour

const codeInsertBatch = 500

// DropService manages drop registration and teardown.
type DropService struct {
	drops      repositories.DropRepository
	codes      repositories.CodeRepository
	challenges repositories.ChallengeRepository
	exec       *executor.Executor
	now        func() time.Time
}

func NewDropService(
	drops repositories.DropRepository,
	codes repositories.CodeRepository,
	challenges repositories.ChallengeRepository,
	exec *executor.Executor,
) *DropService {
	return &DropService{
		drops:      drops,
		codes:      codes,
		challenges: challenges,
		exec:       exec,
		now:        time.Now,
	}
}

// RegisterDropInput is the organiser-supplied registration payload.
type RegisterDropInput struct {
	Name  string
	Email string
	Date  string // YYYY-MM-DD, the drop's last day
	Codes []string
	Kinds []string
	Game  *models.GameConfig
}

type RegisterDropResult struct {
	ID         string
	Name       string
	AdminToken string
	CodeCount  int
}

// RegisterDrop validates and sanitises the payload, rejects codes already
// owned by another drop, then creates the drop with its initial rotating
// token and loads the code pool in throttled batches.
func (s *DropService) RegisterDrop(ctx context.Context, input RegisterDropInput) (*RegisterDropResult, error) {
	if len(input.Codes) == 0 {
		return nil, errors.New("code list has 0 entries")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("please specify a drop name")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, errors.New("please specify a valid email address")
	}
	if !datePattern.MatchString(input.Date) {
		return nil, errors.New("please specify the date as YYYY-MM-DD, for example 2021-11-25")
	}

	saneCodes, err := sanitiseCodes(input.Codes)
	if err != nil {
		return nil, err
	}

	dropID := uuid.NewString()
	if err := s.checkCodeClashes(ctx, dropID, saneCodes); err != nil {
		return nil, err
	}

	// Test pools get a short-lived token so CI never waits out a real
	// rotation interval.
	isTest := hasTestCode(saneCodes)
	validityMinutes := 2.0
	if isTest {
		validityMinutes = 0.5
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, fmt.Errorf("unparseable date %q: %w", input.Date, err)
	}
	expiresAt := date.Add(expiryGrace)

	now := s.now()
	drop := &models.Drop{
		ID:             dropID,
		Name:           input.Name,
		Email:          input.Email,
		CodeCount:      len(saneCodes),
		AvailableCount: len(saneCodes),
		AdminToken:     uuid.NewString(),
		Kinds:          input.Kinds,
		Game:           gameOrDefault(input.Game),
		CurrentAccess:  allocation.NewAccessToken(now, validityMinutes, isTest),
		ExpiresAt:      expiresAt,
	}
	if err := s.drops.Create(ctx, drop); err != nil {
		return nil, err
	}

	if err := s.insertCodes(ctx, dropID, saneCodes, expiresAt); err != nil {
		return nil, err
	}

	return &RegisterDropResult{
		ID:         drop.ID,
		Name:       drop.Name,
		AdminToken: drop.AdminToken,
		CodeCount:  len(saneCodes),
	}, nil
}

// DeleteDrop removes a drop after verifying the organiser's admin token,
// then cascades over the drop's codes and outstanding challenges.
func (s *DropService) DeleteDrop(ctx context.Context, dropID, adminToken string) error {
	drop, err := s.drops.GetByID(ctx, dropID)
	if err != nil {
		return err
	}
	if drop.AdminToken != adminToken {
		return ErrInvalidAdminToken
	}

	if err := s.drops.Delete(ctx, dropID); err != nil {
		return err
	}

	tasks := []executor.Task{
		func(ctx context.Context) error {
			_, err := s.codes.DeleteByDrop(ctx, dropID)
			return err
		},
		func(ctx context.Context) error {
			_, err := s.challenges.DeleteByDrop(ctx, dropID)
			return err
		},
	}
	return s.exec.RunAll(ctx, tasks)
}

// SearchDrops fuzzy matches drop names for the admin tooling, best match
// first.
func (s *DropService) SearchDrops(ctx context.Context, query string) ([]*models.Drop, error) {
	drops, err := s.drops.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return drops, nil
	}

	names := make([]string, len(drops))
	for i, d := range drops {
		names[i] = d.Name
	}

	matches := fuzzy.Find(query, names)
	results := make([]*models.Drop, 0, len(matches))
	for _, m := range matches {
		results = append(results, drops[m.Index])
	}
	return results, nil
}

// OrganiserEmails returns the distinct organiser addresses for the admin
// tooling.
func (s *DropService) OrganiserEmails(ctx context.Context) ([]string, error) {
	return s.drops.DistinctEmails(ctx)
}

// sanitiseCodes strips URL prefixes that sneak in when organisers paste
// claim links instead of raw codes, and rejects anything that is not a
// plausible code.
func sanitiseCodes(raw []string) ([]string, error) {
	sane := make([]string, 0, len(raw))
	for _, code := range raw {
		code = urlPrefixPattern.ReplaceAllString(code, "")
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if !codePattern.MatchString(code) {
			return nil, fmt.Errorf("invalid code: %s", code)
		}
		sane = append(sane, code)
	}
	if len(sane) == 0 {
		return nil, errors.New("code list has 0 usable entries")
	}
	return sane, nil
}

func hasTestCode(codes []string) bool {
	for _, code := range codes {
		if strings.Contains(code, "testing") {
			return true
		}
	}
	return false
}

func gameOrDefault(game *models.GameConfig) models.GameConfig {
	if game == nil {
		return models.GameConfig{DurationSeconds: 30, TargetScore: 5}
	}
	return *game
}

// checkCodeClashes verifies, in throttled parallel, that none of the codes
// belong to a different drop already.
func (s *DropService) checkCodeClashes(ctx context.Context, dropID string, codes []string) error {
	tasks := make([]executor.Task, len(codes))
	for i, code := range codes {
		code := code
		tasks[i] = func(ctx context.Context) error {
			existing, err := s.codes.GetByID(ctx, code)
			if errors.Is(err, repositories.ErrCodeNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if existing.DropID != dropID {
				return fmt.Errorf("%w: duplicate entry %s", ErrCodeClash, code)
			}
			return nil
		}
	}

	for _, err := range s.exec.Run(ctx, tasks) {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *DropService) insertCodes(ctx context.Context, dropID string, codes []string, expiresAt time.Time) error {
	var tasks []executor.Task
	for start := 0; start < len(codes); start += codeInsertBatch {
		end := start + codeInsertBatch
		if end > len(codes) {
			end = len(codes)
		}

		batch := codes[start:end]
		tasks = append(tasks, func(ctx context.Context) error {
			rows := make([]*models.Code, len(batch))
			for i, code := range batch {
				rows[i] = &models.Code{
					ID:        code,
					DropID:    dropID,
					Claimed:   models.ClaimStatusUnclaimed,
					ExpiresAt: expiresAt,
				}
			}
			_, err := s.codes.BulkCreate(ctx, rows)
			return err
		})
	}
	return s.exec.RunAll(ctx, tasks)
}
