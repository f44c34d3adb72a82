package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"gorm.io/gorm"
)

// SeedProfile creates a LINE-backed profile with the given stamp count.
func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, displayName string, stamps int) *types.Profile {
	tb.Helper()
	id := "U" + uuid.NewString()[:12]
	p := &types.Profile{
		ID:          id,
		LineUserID:  pointers.String(id),
		DisplayName: displayName,
		StampCount:  stamps,
		ViewMode:    types.ViewModeAdult,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

// SeedFamily creates a family represented by parent and links the parent to it.
func SeedFamily(tb testing.TB, ctx context.Context, tx *gorm.DB, parent *types.Profile, name string) *types.Family {
	tb.Helper()
	f := &types.Family{Name: name, RepresentativeUserID: parent.ID}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed family: %v", err)
	}
	JoinFamily(tb, ctx, tx, parent, f, types.RoleParent)
	return f
}

func JoinFamily(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.Profile, f *types.Family, role string) {
	tb.Helper()
	fid := f.ID.String()
	if err := tx.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"family_id": fid, "family_role": role}).Error; err != nil {
		tb.Fatalf("join family: %v", err)
	}
	p.FamilyID = &fid
	p.FamilyRole = pointers.String(role)
}

func SeedReward(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, required, order int, active bool) *types.Reward {
	tb.Helper()
	r := &types.Reward{
		Name:           fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		RequiredStamps: required,
		DisplayOrder:   order,
		IsActive:       true,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed reward: %v", err)
	}
	if !active {
		// gorm skips zero-value bools on create, so deactivate explicitly
		if err := tx.WithContext(ctx).Model(r).Update("is_active", false).Error; err != nil {
			tb.Fatalf("deactivate reward: %v", err)
		}
		r.IsActive = false
	}
	return r
}

func SeedSurvey(tb testing.TB, ctx context.Context, tx *gorm.DB, rewardStamps int, active bool) *types.Survey {
	tb.Helper()
	s := &types.Survey{
		ID:           "survey-" + uuid.NewString()[:8],
		Title:        "満足度アンケート",
		RewardStamps: rewardStamps,
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed survey: %v", err)
	}
	if !active {
		if err := tx.WithContext(ctx).Model(s).Update("is_active", false).Error; err != nil {
			tb.Fatalf("deactivate survey: %v", err)
		}
		s.IsActive = false
	}
	return s
}

func SeedSurveyTarget(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, surveyID string) *types.SurveyTarget {
	tb.Helper()
	t := &types.SurveyTarget{UserID: userID, SurveyID: surveyID}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed survey target: %v", err)
	}
	return t
}
