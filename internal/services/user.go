package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/pkg/optional"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

const (
	maxMemoRunes       = 200
	defaultDisplayName = "ユーザー"
)

type MeResult struct {
	Profile *types.Profile `json:"profile"`
	Family  *types.Family  `json:"family"`
}

type SetupRoleInput struct {
	Role         string  `json:"role"`
	TicketNumber *string `json:"ticketNumber"`
	RealName     *string `json:"realName"`
}

type SetupRoleResult struct {
	Family    *types.Family `json:"family,omitempty"`
	NeedsJoin bool          `json:"needsJoin,omitempty"`
	Created   bool          `json:"-"`
}

// MemoUpdate leaves a field untouched when it is absent; null or "" clears it.
type MemoUpdate struct {
	NextVisitDate optional.Value[string] `json:"next_visit_date"`
	NextMemo      optional.Value[string] `json:"next_memo"`
}

type UserService interface {
	Upsert(ctx context.Context, lineUserID, displayName, pictureURL string) (*types.Profile, error)
	GetProfile(ctx context.Context, id string) (*types.Profile, error)
	Me(ctx context.Context) (*MeResult, error)
	SetupRole(ctx context.Context, in SetupRoleInput) (*SetupRoleResult, error)
	GetMemo(ctx context.Context, userID, staffPin string) (*types.Memo, error)
	UpdateMemo(ctx context.Context, userID, staffPin string, in MemoUpdate) (*types.Memo, error)
	RecordReservationClick(ctx context.Context, userID string) (int, error)
	SetViewMode(ctx context.Context, mode string) (*types.Profile, error)
	SetLineFriend(ctx context.Context, isFriend bool) error
	UpdateChildSettings(ctx context.Context, realName, ticketNumber string) (*types.Profile, error)
}

type userService struct {
	db        *gorm.DB
	log       *logger.Logger
	profiles  repos.ProfileRepo
	families  repos.FamilyRepo
	staff     StaffGate
	analytics AnalyticsService
	calendar  *ClinicCalendar
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	profiles repos.ProfileRepo,
	families repos.FamilyRepo,
	staff StaffGate,
	analytics AnalyticsService,
	calendar *ClinicCalendar,
) UserService {
	return &userService{
		db:        db,
		log:       log.With("service", "UserService"),
		profiles:  profiles,
		families:  families,
		staff:     staff,
		analytics: analytics,
		calendar:  calendar,
	}
}

func (us *userService) Upsert(ctx context.Context, lineUserID, displayName, pictureURL string) (*types.Profile, error) {
	lineUserID = strings.TrimSpace(lineUserID)
	if lineUserID == "" {
		return nil, badRequest("invalid_request", "LINE user id is required")
	}
	p := &types.Profile{
		ID:          lineUserID,
		LineUserID:  &lineUserID,
		DisplayName: strings.TrimSpace(displayName),
		ViewMode:    types.ViewModeAdult,
	}
	if pic := strings.TrimSpace(pictureURL); pic != "" {
		p.PictureURL = &pic
	}
	saved, err := us.profiles.Upsert(ctx, us.db, p)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "profile_upsert_failed", err)
	}
	return saved, nil
}

func (us *userService) GetProfile(ctx context.Context, id string) (*types.Profile, error) {
	uid, err := actingUser(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := us.profiles.GetByID(ctx, us.db, uid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "get_profile_failed", err)
	}
	if p == nil {
		return nil, notFound("profile_not_found", "profile")
	}
	return p, nil
}

func (us *userService) Me(ctx context.Context) (*MeResult, error) {
	p, err := us.GetProfile(ctx, "")
	if err != nil {
		return nil, err
	}
	out := &MeResult{Profile: p}
	if p.InFamily() {
		fid, perr := uuid.Parse(*p.FamilyID)
		if perr == nil {
			f, ferr := us.families.GetByID(ctx, us.db, fid)
			if ferr != nil {
				return nil, apierr.New(http.StatusInternalServerError, "get_family_failed", ferr)
			}
			out.Family = f
		}
	}
	return out, nil
}

func (us *userService) SetupRole(ctx context.Context, in SetupRoleInput) (*SetupRoleResult, error) {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return nil, err
	}
	role := strings.TrimSpace(in.Role)
	if role != types.RoleParent && role != types.RoleChild {
		return nil, badRequest("invalid_role", "role must be parent or child")
	}

	out := &SetupRoleResult{}
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := us.profiles.GetByIDForUpdate(ctx, tx, uid)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("profile_not_found", "profile")
		}

		fields := map[string]any{}
		if in.TicketNumber != nil {
			fields["ticket_number"] = pointers.NonBlank(*in.TicketNumber)
		}
		if in.RealName != nil {
			fields["real_name"] = pointers.NonBlank(*in.RealName)
		}
		if err := us.profiles.UpdateFields(ctx, tx, uid, fields); err != nil {
			return err
		}

		if role == types.RoleChild {
			if err := us.profiles.UpdateFields(ctx, tx, uid, map[string]any{"family_role": types.RoleChild}); err != nil {
				return err
			}
			out.NeedsJoin = true
			return nil
		}

		if p.InFamily() {
			return alreadyInFamily()
		}
		name := strings.TrimSpace(p.DisplayName)
		if name == "" {
			name = defaultDisplayName
		}
		f, err := createFamily(ctx, tx, us.profiles, us.families, p, name+"の家族")
		if err != nil {
			return err
		}
		out.Family = f
		out.Created = true
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "setup_role_failed")
	}
	us.log.Info("role set up", "user_id", uid, "role", role)
	return out, nil
}

// memoTarget resolves whose memo is being accessed. Another user's memo needs the staff PIN.
func (us *userService) memoTarget(ctx context.Context, userID, staffPin string) (string, error) {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return "", err
	}
	target := strings.TrimSpace(userID)
	if target == "" || target == uid {
		return uid, nil
	}
	if us.staff == nil {
		return "", apierr.New(http.StatusForbidden, "forbidden", errors.New("staff access is not configured"))
	}
	if err := us.staff.Verify(staffPin); err != nil {
		return "", err
	}
	return target, nil
}

func (us *userService) GetMemo(ctx context.Context, userID, staffPin string) (*types.Memo, error) {
	target, err := us.memoTarget(ctx, userID, staffPin)
	if err != nil {
		return nil, err
	}
	p, err := us.profiles.GetByID(ctx, us.db, target)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "get_memo_failed", err)
	}
	if p == nil {
		return nil, notFound("profile_not_found", "profile")
	}
	memo := p.Memo()
	return &memo, nil
}

func (us *userService) UpdateMemo(ctx context.Context, userID, staffPin string, in MemoUpdate) (*types.Memo, error) {
	target, err := us.memoTarget(ctx, userID, staffPin)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"next_memo_updated_at": us.calendar.Now()}
	if in.NextVisitDate.Set {
		date := ""
		if in.NextVisitDate.V != nil {
			date = strings.TrimSpace(*in.NextVisitDate.V)
		}
		if date != "" && !ValidDay(date) {
			return nil, badRequest("invalid_date", "next_visit_date must be YYYY-MM-DD")
		}
		fields["next_visit_date"] = pointers.NonBlank(date)
	}
	if in.NextMemo.Set {
		memo := ""
		if in.NextMemo.V != nil {
			memo = *in.NextMemo.V
		}
		if utf8.RuneCountInString(memo) > maxMemoRunes {
			return nil, apierr.Newf(http.StatusBadRequest, "memo_too_long", "メモは%d文字以内で入力してください", maxMemoRunes)
		}
		fields["next_memo"] = pointers.NonBlank(memo)
	}

	var out types.Memo
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := us.profiles.GetByIDForUpdate(ctx, tx, target)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("profile_not_found", "profile")
		}
		if err := us.profiles.UpdateFields(ctx, tx, target, fields); err != nil {
			return err
		}
		updated, err := us.profiles.GetByID(ctx, tx, target)
		if err != nil {
			return err
		}
		out = updated.Memo()
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "update_memo_failed")
	}
	return &out, nil
}

func (us *userService) RecordReservationClick(ctx context.Context, userID string) (int, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	clicks, err := us.profiles.IncrementReservationClicks(ctx, us.db, uid)
	if err != nil {
		return 0, passAPIErr(err, http.StatusInternalServerError, "reservation_click_failed")
	}
	us.analytics.Track(ctx, uid, analytics.EventReservationButtonClick, "api", map[string]any{"clicks": clicks})
	return clicks, nil
}

func (us *userService) SetViewMode(ctx context.Context, mode string) (*types.Profile, error) {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return nil, err
	}
	mode = strings.TrimSpace(mode)
	if mode != types.ViewModeAdult && mode != types.ViewModeKids {
		return nil, badRequest("invalid_view_mode", "viewMode must be adult or kids")
	}
	p, err := us.updateSelf(ctx, uid, map[string]any{"view_mode": mode}, "view_mode_failed")
	if err != nil {
		return nil, err
	}
	event := analytics.EventChildModeExit
	if mode == types.ViewModeKids {
		event = analytics.EventChildModeEnter
	}
	us.analytics.Track(ctx, uid, event, "api", nil)
	return p, nil
}

func (us *userService) SetLineFriend(ctx context.Context, isFriend bool) error {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return err
	}
	_, err = us.updateSelf(ctx, uid, map[string]any{"is_line_friend": isFriend}, "line_friend_failed")
	return err
}

func (us *userService) UpdateChildSettings(ctx context.Context, realName, ticketNumber string) (*types.Profile, error) {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return nil, err
	}
	realName = strings.TrimSpace(realName)
	if realName == "" {
		return nil, badRequest("invalid_request", "realName is required")
	}
	return us.updateSelf(ctx, uid, map[string]any{
		"display_name":  realName,
		"real_name":     realName,
		"ticket_number": pointers.NonBlank(ticketNumber),
	}, "child_settings_failed")
}

func (us *userService) updateSelf(ctx context.Context, uid string, fields map[string]any, failCode string) (*types.Profile, error) {
	var out *types.Profile
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := us.profiles.GetByIDForUpdate(ctx, tx, uid)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("profile_not_found", "profile")
		}
		if err := us.profiles.UpdateFields(ctx, tx, uid, fields); err != nil {
			return err
		}
		out, err = us.profiles.GetByID(ctx, tx, uid)
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, failCode)
	}
	return out, nil
}
