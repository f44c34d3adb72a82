package profile

import (
	"context"
	"errors"
	"time"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error)
	Upsert(ctx context.Context, tx *gorm.DB, p *types.Profile) (*types.Profile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Profile, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*types.Profile, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Profile, error)
	GetByLineUserID(ctx context.Context, tx *gorm.DB, lineUserID string) (*types.Profile, error)
	ListByFamilyID(ctx context.Context, tx *gorm.DB, familyID string) ([]*types.Profile, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
	FamilyTotals(ctx context.Context, tx *gorm.DB, familyID string) (*types.FamilyTotals, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]any) error
	SetFamily(ctx context.Context, tx *gorm.DB, id string, familyID, role *string) error
	AddStamps(ctx context.Context, tx *gorm.DB, id string, delta, visitDelta int, visitAt *time.Time) error
	SetCounts(ctx context.Context, tx *gorm.DB, id string, stampCount, visitCount int) error
	IncrementReservationClicks(ctx context.Context, tx *gorm.DB, id string) (int, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog}
}

func (r *profileRepo) Create(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(profiles) == 0 {
		return []*types.Profile{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Upsert inserts p, or refreshes the LINE-sourced fields when the id already exists.
func (r *profileRepo) Upsert(ctx context.Context, tx *gorm.DB, p *types.Profile) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "picture_url", "updated_at"}),
		}).
		Create(p).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, transaction, p.ID)
}

func (r *profileRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.Profile
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDForUpdate row-locks the profile on Postgres. SQLite serializes writers already.
func (r *profileRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p types.Profile
	err := q.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Profile
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *profileRepo) GetByLineUserID(ctx context.Context, tx *gorm.DB, lineUserID string) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.Profile
	err := transaction.WithContext(ctx).Where("line_user_id = ?", lineUserID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) ListByFamilyID(ctx context.Context, tx *gorm.DB, familyID string) ([]*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Profile
	if err := transaction.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *profileRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *profileRepo) FamilyTotals(ctx context.Context, tx *gorm.DB, familyID string) (*types.FamilyTotals, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row struct {
		TotalStampCount int
		TotalVisitCount int
		MemberCount     int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Select("COALESCE(SUM(stamp_count), 0) AS total_stamp_count, COALESCE(SUM(visit_count), 0) AS total_visit_count, COUNT(*) AS member_count").
		Where("family_id = ?", familyID).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	return &types.FamilyTotals{
		FamilyID:        familyID,
		TotalStampCount: row.TotalStampCount,
		TotalVisitCount: row.TotalVisitCount,
		MemberCount:     row.MemberCount,
	}, nil
}

func (r *profileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *profileRepo) SetFamily(ctx context.Context, tx *gorm.DB, id string, familyID, role *string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"family_id":   familyID,
			"family_role": role,
		}).Error
}

// AddStamps applies a signed stamp delta, never letting stamp_count or visit_count drop below zero.
func (r *profileRepo) AddStamps(ctx context.Context, tx *gorm.DB, id string, delta, visitDelta int, visitAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	fields := map[string]any{
		"stamp_count": gorm.Expr("CASE WHEN stamp_count + ? < 0 THEN 0 ELSE stamp_count + ? END", delta, delta),
	}
	if visitDelta != 0 {
		fields["visit_count"] = gorm.Expr("CASE WHEN visit_count + ? < 0 THEN 0 ELSE visit_count + ? END", visitDelta, visitDelta)
	}
	if visitAt != nil {
		fields["last_visit_date"] = *visitAt
	}
	res := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *profileRepo) SetCounts(ctx context.Context, tx *gorm.DB, id string, stampCount, visitCount int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stamp_count": stampCount,
			"visit_count": visitCount,
		}).Error
}

func (r *profileRepo) IncrementReservationClicks(ctx context.Context, tx *gorm.DB, id string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Update("reservation_button_clicks", gorm.Expr("reservation_button_clicks + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var clicks []int
	if err := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Pluck("reservation_button_clicks", &clicks).Error; err != nil {
		return 0, err
	}
	if len(clicks) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return clicks[0], nil
}

func (r *profileRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Profile{}).Error
}
