package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
	"github.com/dropkiosk/dropkiosk/kiosk/executor"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// Interface-embedding stubs: only the methods a test touches are overridden,
// anything else panics with a nil pointer and fails the test loudly.

type stubDrops struct {
	repositories.DropRepository
	mu      sync.Mutex
	created []*models.Drop
	byID    map[string]*models.Drop
	deleted []string
	all     []*models.Drop
}

func (s *stubDrops) Create(_ context.Context, drop *models.Drop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, drop)
	return nil
}

func (s *stubDrops) GetByID(_ context.Context, id string) (*models.Drop, error) {
	if d, ok := s.byID[id]; ok {
		return d, nil
	}
	return nil, repositories.ErrDropNotFound
}

func (s *stubDrops) GetAll(_ context.Context) ([]*models.Drop, error) {
	return s.all, nil
}

func (s *stubDrops) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubDrops) DistinctEmails(_ context.Context) ([]string, error) {
	emails := make([]string, 0, len(s.all))
	for _, d := range s.all {
		emails = append(emails, d.Email)
	}
	return emails, nil
}

type stubCodes struct {
	repositories.CodeRepository
	mu          sync.Mutex
	existing    map[string]*models.Code
	inserted    []*models.Code
	dropDeletes []string
}

func (s *stubCodes) GetByID(_ context.Context, id string) (*models.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.existing[id]; ok {
		return c, nil
	}
	return nil, repositories.ErrCodeNotFound
}

func (s *stubCodes) BulkCreate(_ context.Context, codes []*models.Code) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, codes...)
	return len(codes), nil
}

func (s *stubCodes) DeleteByDrop(_ context.Context, dropID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropDeletes = append(s.dropDeletes, dropID)
	return 1, nil
}

type stubChallenges struct {
	repositories.ChallengeRepository
	mu          sync.Mutex
	dropDeletes []string
}

func (s *stubChallenges) DeleteByDrop(_ context.Context, dropID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropDeletes = append(s.dropDeletes, dropID)
	return 1, nil
}

func newTestService() (*DropService, *stubDrops, *stubCodes, *stubChallenges) {
	drops := &stubDrops{byID: map[string]*models.Drop{}}
	codes := &stubCodes{existing: map[string]*models.Code{}}
	challenges := &stubChallenges{}
	exec := executor.New(executor.WithRetry(0, 0), executor.WithoutJitter())
	s := NewDropService(drops, codes, challenges, exec)
	s.now = func() time.Time { return testNow }
	return s, drops, codes, challenges
}

func TestSanitiseCodes(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []string
		wantErr bool
	}{
		{
			name: "claim links reduced to codes",
			raw:  []string{"https://claim.example.com/mint/abc123", "plain456"},
			want: []string{"abc123", "plain456"},
		},
		{
			name: "whitespace and empties dropped",
			raw:  []string{"  abc123  ", "", "   "},
			want: []string{"abc123"},
		},
		{
			name:    "punctuation rejected",
			raw:     []string{"abc 123!"},
			wantErr: true,
		},
		{
			name:    "overlong code rejected",
			raw:     []string{strings.Repeat("x", 43)},
			wantErr: true,
		},
		{
			name:    "nothing usable",
			raw:     []string{"", "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitiseCodes(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sanitiseCodes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("sanitiseCodes() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sanitiseCodes()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHasTestCode(t *testing.T) {
	if hasTestCode([]string{"abc123", "def456"}) {
		t.Error("hasTestCode() = true for plain codes")
	}
	if !hasTestCode([]string{"abc123", "testing-def"}) {
		t.Error("hasTestCode() = false with a testing code present")
	}
}

func TestRegisterDrop_Validation(t *testing.T) {
	valid := RegisterDropInput{
		Name:  "Summer Fest",
		Email: "host@example.com",
		Date:  "2026-03-20",
		Codes: []string{"abc123"},
	}

	tests := []struct {
		name   string
		mutate func(*RegisterDropInput)
	}{
		{"empty code list", func(in *RegisterDropInput) { in.Codes = nil }},
		{"blank name", func(in *RegisterDropInput) { in.Name = "  " }},
		{"email without at sign", func(in *RegisterDropInput) { in.Email = "host.example.com" }},
		{"malformed date", func(in *RegisterDropInput) { in.Date = "20-03-2026" }},
		{"impossible month", func(in *RegisterDropInput) { in.Date = "2026-13-01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _, _ := newTestService()
			input := valid
			tt.mutate(&input)
			if _, err := s.RegisterDrop(context.Background(), input); err == nil {
				t.Error("RegisterDrop() error = nil, want validation error")
			}
		})
	}
}

func TestRegisterDrop_Success(t *testing.T) {
	s, drops, codes, _ := newTestService()

	result, err := s.RegisterDrop(context.Background(), RegisterDropInput{
		Name:  "Summer Fest",
		Email: "host@example.com",
		Date:  "2026-03-20",
		Codes: []string{"https://claim.example.com/mint/abc123", "def456"},
	})
	if err != nil {
		t.Fatalf("RegisterDrop() error = %v", err)
	}

	if result.CodeCount != 2 {
		t.Errorf("CodeCount = %d, want 2", result.CodeCount)
	}
	if result.AdminToken == "" {
		t.Error("AdminToken is empty")
	}

	if len(drops.created) != 1 {
		t.Fatalf("created %d drops, want 1", len(drops.created))
	}
	drop := drops.created[0]
	if drop.AvailableCount != 2 {
		t.Errorf("AvailableCount = %d, want 2", drop.AvailableCount)
	}
	if got, want := drop.ExpiresAt, time.Date(2026, 3, 27, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v (a week past the drop date)", got, want)
	}
	if drop.CurrentAccess.ValidityMinutes != 2.0 {
		t.Errorf("ValidityMinutes = %v, want 2", drop.CurrentAccess.ValidityMinutes)
	}
	if drop.Game.DurationSeconds != 30 || drop.Game.TargetScore != 5 {
		t.Errorf("Game = %+v, want default {30 5}", drop.Game)
	}

	if len(codes.inserted) != 2 {
		t.Fatalf("inserted %d codes, want 2", len(codes.inserted))
	}
	for _, code := range codes.inserted {
		if code.DropID != drop.ID {
			t.Errorf("code %s DropID = %q, want %q", code.ID, code.DropID, drop.ID)
		}
		if code.Claimed != models.ClaimStatusUnclaimed {
			t.Errorf("code %s Claimed = %v, want unclaimed", code.ID, code.Claimed)
		}
	}
}

func TestRegisterDrop_TestCodesShortenTokenValidity(t *testing.T) {
	s, drops, _, _ := newTestService()

	_, err := s.RegisterDrop(context.Background(), RegisterDropInput{
		Name:  "CI Pool",
		Email: "ci@example.com",
		Date:  "2026-03-20",
		Codes: []string{"testing-abc"},
	})
	if err != nil {
		t.Fatalf("RegisterDrop() error = %v", err)
	}

	access := drops.created[0].CurrentAccess
	if access.ValidityMinutes != 0.5 {
		t.Errorf("ValidityMinutes = %v, want 0.5", access.ValidityMinutes)
	}
	if !strings.HasPrefix(access.Token, "testing-") {
		t.Errorf("Token = %q, want testing- prefix", access.Token)
	}
}

func TestRegisterDrop_RejectsForeignCodes(t *testing.T) {
	s, _, codes, _ := newTestService()
	codes.existing["abc123"] = &models.Code{ID: "abc123", DropID: "someone-elses-drop"}

	_, err := s.RegisterDrop(context.Background(), RegisterDropInput{
		Name:  "Summer Fest",
		Email: "host@example.com",
		Date:  "2026-03-20",
		Codes: []string{"abc123"},
	})
	if !errors.Is(err, ErrCodeClash) {
		t.Errorf("RegisterDrop() error = %v, want ErrCodeClash", err)
	}
}

func TestDeleteDrop(t *testing.T) {
	s, drops, codes, challenges := newTestService()
	drops.byID["drop-1"] = &models.Drop{ID: "drop-1", AdminToken: "secret"}

	if err := s.DeleteDrop(context.Background(), "drop-1", "wrong"); !errors.Is(err, ErrInvalidAdminToken) {
		t.Fatalf("DeleteDrop() error = %v, want ErrInvalidAdminToken", err)
	}
	if len(drops.deleted) != 0 {
		t.Fatal("drop deleted despite invalid admin token")
	}

	if err := s.DeleteDrop(context.Background(), "drop-1", "secret"); err != nil {
		t.Fatalf("DeleteDrop() error = %v", err)
	}
	if len(drops.deleted) != 1 || drops.deleted[0] != "drop-1" {
		t.Errorf("deleted drops = %v, want [drop-1]", drops.deleted)
	}
	if len(codes.dropDeletes) != 1 || len(challenges.dropDeletes) != 1 {
		t.Errorf("cascade = (codes %v, challenges %v), want one delete each",
			codes.dropDeletes, challenges.dropDeletes)
	}
}

func TestOrganiserEmails(t *testing.T) {
	s, drops, _, _ := newTestService()
	drops.all = []*models.Drop{
		{ID: "1", Name: "Summer Fest", Email: "host@example.com"},
		{ID: "2", Name: "Winter Gala", Email: "other@example.com"},
	}

	emails, err := s.OrganiserEmails(context.Background())
	if err != nil {
		t.Fatalf("OrganiserEmails() error = %v", err)
	}
	if len(emails) != 2 || emails[0] != "host@example.com" {
		t.Errorf("OrganiserEmails() = %v", emails)
	}
}

func TestSearchDrops(t *testing.T) {
	s, drops, _, _ := newTestService()
	drops.all = []*models.Drop{
		{ID: "1", Name: "Summer Fest"},
		{ID: "2", Name: "Winter Gala"},
		{ID: "3", Name: "Spring Market"},
	}

	all, err := s.SearchDrops(context.Background(), "  ")
	if err != nil {
		t.Fatalf("SearchDrops() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("blank query returned %d drops, want all 3", len(all))
	}

	got, err := s.SearchDrops(context.Background(), "wintr")
	if err != nil {
		t.Fatalf("SearchDrops() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("SearchDrops(wintr) = %v, want the Winter Gala drop", got)
	}
}
