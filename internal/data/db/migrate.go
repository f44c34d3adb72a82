package db

import (
	"fmt"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// EnsureStampIndexes creates the indexes AutoMigrate cannot express. The statements run on Postgres and SQLite.
func EnsureStampIndexes(db *gorm.DB) error {
	// one credit per QR code per user per clinic day
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_stamp_history_qr_daily
		ON stamp_history(user_id, qr_code_id, visit_day)
		WHERE stamp_method = 'qr_scan';
	`).Error; err != nil {
		return fmt.Errorf("create idx_stamp_history_qr_daily: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_stamp_history_user_day ON stamp_history(user_id, visit_day);`).Error; err != nil {
		return fmt.Errorf("create idx_stamp_history_user_day: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_reward_exchanges_user_status ON reward_exchanges(user_id, status);`).Error; err != nil {
		return fmt.Errorf("create idx_reward_exchanges_user_status: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_rewards_active_order ON rewards(is_active, display_order);`).Error; err != nil {
		return fmt.Errorf("create idx_rewards_active_order: %w", err)
	}
	return nil
}

func EnsureSurveyIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_survey_answers_user_survey ON survey_answers(user_id, survey_id);`).Error; err != nil {
		return fmt.Errorf("create idx_survey_answers_user_survey: %w", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_survey_targets_user_survey ON survey_targets(user_id, survey_id);`).Error; err != nil {
		return fmt.Errorf("create idx_survey_targets_user_survey: %w", err)
	}
	return nil
}

// EnsureReportingViews creates the Postgres-only family_stamp_totals view used by reporting tools.
func EnsureReportingViews(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE OR REPLACE VIEW family_stamp_totals AS
		SELECT family_id,
		       COALESCE(SUM(stamp_count), 0) AS total_stamp_count,
		       COALESCE(SUM(visit_count), 0) AS total_visit_count,
		       COUNT(*) AS member_count
		FROM profiles
		WHERE family_id IS NOT NULL
		GROUP BY family_id;
	`).Error; err != nil {
		return fmt.Errorf("create view family_stamp_totals: %w", err)
	}
	return nil
}

// MigrateAll runs AutoMigrate followed by every index and view helper.
func MigrateAll(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := EnsureStampIndexes(db); err != nil {
		return err
	}
	if err := EnsureSurveyIndexes(db); err != nil {
		return err
	}
	return EnsureReportingViews(db)
}
