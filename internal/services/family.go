package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/ctxutil"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

const proxyChildIDPrefix = types.ProxyIDPrefix + "child-"

// FamilyDetail is the family page payload: the family, its members and aggregate counts.
type FamilyDetail struct {
	*types.Family
	Members         []types.FamilyMember `json:"members"`
	TotalStampCount int                  `json:"total_stamp_count"`
	TotalVisitCount int                  `json:"total_visit_count"`
	MemberCount     int                  `json:"member_count"`
}

type AddMemberInput struct {
	ChildName    string  `json:"childName"`
	TicketNumber *string `json:"ticketNumber"`
}

type EditMemberInput struct {
	ChildName    *string `json:"childName"`
	TicketNumber *string `json:"ticketNumber"`
}

type RemoveMemberResult struct {
	MemberID    string `json:"memberId"`
	HardDeleted bool   `json:"hardDeleted"`
}

type FamilyService interface {
	Create(ctx context.Context, name string) (*types.Family, error)
	Join(ctx context.Context, inviteCode string) (*types.Family, error)
	Mine(ctx context.Context) (*FamilyDetail, error)
	Rename(ctx context.Context, name string) (*types.Family, error)
	Unlink(ctx context.Context, memberID string) error
	AddProxyMember(ctx context.Context, in AddMemberInput) (*types.Profile, error)
	EditMember(ctx context.Context, memberID string, in EditMemberInput) (*types.Profile, error)
	RemoveMember(ctx context.Context, memberID string) (*RemoveMemberResult, error)
}

type familyService struct {
	db        *gorm.DB
	log       *logger.Logger
	profiles  repos.ProfileRepo
	families  repos.FamilyRepo
	history   repos.StampHistoryRepo
	exchanges repos.RewardExchangeRepo
	avatars   AvatarService
	analytics AnalyticsService
	notify    Notifier
	metrics   *observability.Metrics
}

func NewFamilyService(
	db *gorm.DB,
	log *logger.Logger,
	profiles repos.ProfileRepo,
	families repos.FamilyRepo,
	history repos.StampHistoryRepo,
	exchanges repos.RewardExchangeRepo,
	avatars AvatarService,
	analytics AnalyticsService,
	notify Notifier,
	metrics *observability.Metrics,
) FamilyService {
	return &familyService{
		db:        db,
		log:       log.With("service", "FamilyService"),
		profiles:  profiles,
		families:  families,
		history:   history,
		exchanges: exchanges,
		avatars:   avatars,
		analytics: analytics,
		notify:    notify,
		metrics:   metrics,
	}
}

// createFamily makes owner the representative parent of a new family.
func createFamily(ctx context.Context, tx *gorm.DB, profiles repos.ProfileRepo, families repos.FamilyRepo, owner *types.Profile, name string) (*types.Family, error) {
	f := &types.Family{Name: name, RepresentativeUserID: owner.ID}
	if _, err := families.Create(ctx, tx, []*types.Family{f}); err != nil {
		return nil, err
	}
	fid := f.ID.String()
	role := types.RoleParent
	if err := profiles.SetFamily(ctx, tx, owner.ID, &fid, &role); err != nil {
		return nil, err
	}
	return f, nil
}

func alreadyInFamily() error {
	return badRequest("already_in_family", "既に家族に所属しています")
}

func notParent() error {
	return apierr.New(http.StatusForbidden, "parent_only", errors.New("親アカウントのみが操作できます"))
}

func (fs *familyService) self(ctx context.Context, tx *gorm.DB) (*types.Profile, error) {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return nil, err
	}
	p, err := fs.profiles.GetByIDForUpdate(ctx, tx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("user_not_found", "user")
	}
	return p, nil
}

// parentWithFamily loads the acting user and requires them to be a parent in a family.
func (fs *familyService) parentWithFamily(ctx context.Context, tx *gorm.DB) (*types.Profile, error) {
	p, err := fs.self(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !p.IsParent() {
		return nil, notParent()
	}
	if !p.InFamily() {
		return nil, badRequest("no_family", "家族情報が見つかりません")
	}
	return p, nil
}

func (fs *familyService) changed(ctx context.Context, familyID, action string) {
	fs.metrics.IncFamilyChange(action)
	if fs.notify != nil {
		fs.notify.FamilyUpdated(ctx, familyID, action)
	}
}

func (fs *familyService) Create(ctx context.Context, name string) (*types.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("invalid_family_name", "家族名を入力してください")
	}
	var out *types.Family
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := fs.self(ctx, tx)
		if err != nil {
			return err
		}
		if p.InFamily() {
			return alreadyInFamily()
		}
		out, err = createFamily(ctx, tx, fs.profiles, fs.families, p, name)
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "create_family_failed")
	}
	fs.changed(ctx, out.ID.String(), "create")
	fs.log.Info("family created", "family_id", out.ID, "user_id", out.RepresentativeUserID)
	return out, nil
}

func (fs *familyService) Join(ctx context.Context, inviteCode string) (*types.Family, error) {
	invalid := badRequest("invalid_invite_code", "招待コードが無効です")
	fid, err := uuid.Parse(strings.TrimSpace(inviteCode))
	if err != nil {
		return nil, invalid
	}
	var out *types.Family
	err = fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := fs.self(ctx, tx)
		if err != nil {
			return err
		}
		if p.InFamily() {
			return alreadyInFamily()
		}
		f, err := fs.families.GetByID(ctx, tx, fid)
		if err != nil {
			return err
		}
		if f == nil {
			return invalid
		}
		id := f.ID.String()
		role := types.RoleChild
		if err := fs.profiles.SetFamily(ctx, tx, p.ID, &id, &role); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "join_family_failed")
	}
	fs.changed(ctx, out.ID.String(), "join")
	return out, nil
}

func (fs *familyService) Mine(ctx context.Context) (*FamilyDetail, error) {
	uid, err := actingUser(ctx, "")
	if err != nil {
		return nil, err
	}
	p, err := fs.profiles.GetByID(ctx, fs.db, uid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "get_family_failed", err)
	}
	if p == nil {
		return nil, notFound("user_not_found", "user")
	}
	if !p.InFamily() {
		return nil, notFound("family_not_found", "family")
	}
	fid, err := uuid.Parse(*p.FamilyID)
	if err != nil {
		return nil, notFound("family_not_found", "family")
	}
	f, err := fs.families.GetByID(ctx, fs.db, fid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "get_family_failed", err)
	}
	if f == nil {
		return nil, notFound("family_not_found", "family")
	}
	members, err := fs.profiles.ListByFamilyID(ctx, fs.db, *p.FamilyID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "get_family_failed", err)
	}
	totals, err := fs.profiles.FamilyTotals(ctx, fs.db, *p.FamilyID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "get_family_failed", err)
	}
	detail := &FamilyDetail{
		Family:          f,
		Members:         make([]types.FamilyMember, 0, len(members)),
		TotalStampCount: totals.TotalStampCount,
		TotalVisitCount: totals.TotalVisitCount,
		MemberCount:     totals.MemberCount,
	}
	for _, m := range members {
		detail.Members = append(detail.Members, memberOf(m))
	}
	return detail, nil
}

func memberOf(p *types.Profile) types.FamilyMember {
	return types.FamilyMember{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		FamilyRole:   p.FamilyRole,
		StampCount:   p.StampCount,
		VisitCount:   p.VisitCount,
		LineUserID:   p.LineUserID,
		TicketNumber: p.TicketNumber,
		PictureURL:   p.PictureURL,
	}
}

func (fs *familyService) Rename(ctx context.Context, name string) (*types.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("invalid_family_name", "家族名を入力してください")
	}
	var out *types.Family
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := fs.parentWithFamily(ctx, tx)
		if err != nil {
			return err
		}
		fid, err := uuid.Parse(*p.FamilyID)
		if err != nil {
			return notFound("family_not_found", "family")
		}
		if err := fs.families.UpdateName(ctx, tx, fid, name); err != nil {
			return err
		}
		out, err = fs.families.GetByID(ctx, tx, fid)
		if err == nil && out == nil {
			return notFound("family_not_found", "family")
		}
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "rename_family_failed")
	}
	fs.changed(ctx, out.ID.String(), "rename")
	return out, nil
}

// sameFamilyMember loads memberID and checks it shares the parent's family.
func (fs *familyService) sameFamilyMember(ctx context.Context, tx *gorm.DB, parent *types.Profile, memberID string, mismatch error) (*types.Profile, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, badRequest("invalid_request", "memberId is required")
	}
	if memberID == parent.ID {
		return nil, badRequest("cannot_remove_self", "自分自身は削除できません")
	}
	m, err := fs.profiles.GetByIDForUpdate(ctx, tx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("member_not_found", "member")
	}
	if !m.InFamily() || *m.FamilyID != *parent.FamilyID {
		return nil, mismatch
	}
	return m, nil
}

// Unlink removes a member from the family without deleting them.
func (fs *familyService) Unlink(ctx context.Context, memberID string) error {
	var familyID string
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := fs.parentWithFamily(ctx, tx)
		if err != nil {
			return err
		}
		familyID = *parent.FamilyID
		m, err := fs.sameFamilyMember(ctx, tx, parent, memberID, badRequest("not_family_member", "このメンバーは家族に所属していません"))
		if err != nil {
			return err
		}
		return fs.profiles.SetFamily(ctx, tx, m.ID, nil, nil)
	})
	if err != nil {
		return passAPIErr(err, http.StatusInternalServerError, "unlink_member_failed")
	}
	fs.changed(ctx, familyID, "unlink")
	return nil
}

func (fs *familyService) AddProxyMember(ctx context.Context, in AddMemberInput) (*types.Profile, error) {
	name := strings.TrimSpace(in.ChildName)
	if name == "" {
		return nil, badRequest("invalid_request", "childName is required")
	}
	var child *types.Profile
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := fs.parentWithFamily(ctx, tx)
		if err != nil {
			return err
		}
		role := types.RoleChild
		child = &types.Profile{
			ID:           proxyChildIDPrefix + uuid.NewString(),
			DisplayName:  name,
			RealName:     &name,
			TicketNumber: pointers.NonBlank(pointers.Deref(in.TicketNumber)),
			FamilyID:     parent.FamilyID,
			FamilyRole:   &role,
			ViewMode:     types.ViewModeKids,
		}
		_, err = fs.profiles.Create(ctx, tx, []*types.Profile{child})
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "add_member_failed")
	}

	if fs.avatars != nil {
		url, err := fs.avatars.UploadMemberAvatar(ctx, child)
		switch {
		case err != nil:
			fs.log.Warn("member avatar upload failed", "user_id", child.ID, "error", err)
		case url != "":
			if err := fs.profiles.UpdateFields(ctx, fs.db, child.ID, map[string]any{"picture_url": url}); err != nil {
				fs.log.Warn("member avatar not saved", "user_id", child.ID, "error", err)
			} else {
				child.PictureURL = &url
			}
		}
	}

	fs.analytics.Track(ctx, ctxutil.UserID(ctx), analytics.EventFamilyMemberAdd, "api", map[string]any{"memberId": child.ID})
	fs.changed(ctx, *child.FamilyID, "member_add")
	return child, nil
}

func (fs *familyService) EditMember(ctx context.Context, memberID string, in EditMemberInput) (*types.Profile, error) {
	fields := map[string]any{}
	if in.ChildName != nil {
		name := strings.TrimSpace(*in.ChildName)
		if name == "" {
			return nil, badRequest("invalid_request", "childName must not be empty")
		}
		fields["display_name"] = name
		fields["real_name"] = name
	}
	if in.TicketNumber != nil {
		fields["ticket_number"] = pointers.NonBlank(*in.TicketNumber)
	}

	var out *types.Profile
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := fs.parentWithFamily(ctx, tx)
		if err != nil {
			return err
		}
		m, err := fs.profiles.GetByIDForUpdate(ctx, tx, strings.TrimSpace(memberID))
		if err != nil {
			return err
		}
		if m == nil {
			return notFound("member_not_found", "member")
		}
		if !m.InFamily() || *m.FamilyID != *parent.FamilyID {
			return apierr.New(http.StatusForbidden, "forbidden", errors.New("別の家族のメンバーは編集できません"))
		}
		if err := fs.profiles.UpdateFields(ctx, tx, m.ID, fields); err != nil {
			return err
		}
		out, err = fs.profiles.GetByID(ctx, tx, m.ID)
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "edit_member_failed")
	}
	fs.analytics.Track(ctx, ctxutil.UserID(ctx), analytics.EventFamilyMemberEdit, "api", map[string]any{"memberId": out.ID})
	fs.changed(ctx, *out.FamilyID, "member_edit")
	return out, nil
}

// RemoveMember hard-deletes proxy members with their ledger and exchanges; anyone else is only unlinked.
func (fs *familyService) RemoveMember(ctx context.Context, memberID string) (*RemoveMemberResult, error) {
	var (
		out      RemoveMemberResult
		familyID string
	)
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := fs.parentWithFamily(ctx, tx)
		if err != nil {
			return err
		}
		familyID = *parent.FamilyID
		m, err := fs.sameFamilyMember(ctx, tx, parent, memberID, apierr.New(http.StatusForbidden, "forbidden", errors.New("別の家族のメンバーは削除できません")))
		if err != nil {
			return err
		}
		out.MemberID = m.ID
		if !m.IsProxy() {
			return fs.profiles.SetFamily(ctx, tx, m.ID, nil, nil)
		}
		if err := fs.history.DeleteByUser(ctx, tx, m.ID); err != nil {
			return err
		}
		if err := fs.exchanges.DeleteByUser(ctx, tx, m.ID); err != nil {
			return err
		}
		if err := fs.profiles.Delete(ctx, tx, m.ID); err != nil {
			return err
		}
		out.HardDeleted = true
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "remove_member_failed")
	}
	fs.analytics.Track(ctx, ctxutil.UserID(ctx), analytics.EventFamilyMemberDelete, "api", map[string]any{
		"memberId":    out.MemberID,
		"hardDeleted": out.HardDeleted,
	})
	fs.changed(ctx, familyID, "member_delete")
	fs.log.Info("family member removed", "family_id", familyID, "member_id", out.MemberID, "hard_deleted", out.HardDeleted)
	return &out, nil
}
