package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"github.com/yungbote/stampcard-backend/internal/platform/gcp"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

// Catalog is the YAML definition of rewards and surveys.
type Catalog struct {
	Rewards []CatalogReward `yaml:"rewards"`
	Surveys []CatalogSurvey `yaml:"surveys"`
}

type CatalogReward struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	RequiredStamps int    `yaml:"required_stamps"`
	ImageKey       string `yaml:"image_key"`
	ImageURL       string `yaml:"image_url"`
	DisplayOrder   int    `yaml:"display_order"`
	Active         *bool  `yaml:"is_active"`
}

type CatalogSurvey struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	RewardStamps int    `yaml:"reward_stamps"`
	Active       *bool  `yaml:"is_active"`
}

type SeedResult struct {
	Rewards int `json:"rewards"`
	Surveys int `json:"surveys"`
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(b)
}

func (c *Catalog) Validate() error {
	names := map[string]bool{}
	for i, r := range c.Rewards {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("rewards[%d]: name is required", i)
		}
		if names[name] {
			return fmt.Errorf("rewards[%d]: duplicate name %q", i, name)
		}
		names[name] = true
		if r.RequiredStamps < 0 {
			return fmt.Errorf("rewards[%d]: required_stamps must not be negative", i)
		}
	}
	ids := map[string]bool{}
	for i, s := range c.Surveys {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("surveys[%d]: id is required", i)
		}
		if ids[id] {
			return fmt.Errorf("surveys[%d]: duplicate id %q", i, id)
		}
		ids[id] = true
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("surveys[%d]: title is required", i)
		}
	}
	return nil
}

type CatalogService interface {
	Seed(ctx context.Context, c *Catalog) (*SeedResult, error)
}

type catalogService struct {
	db            *gorm.DB
	log           *logger.Logger
	rewards       repos.RewardRepo
	surveys       repos.SurveyRepo
	bucketService gcp.BucketService
}

// NewCatalogService accepts a nil bucketService; image_key entries are then skipped.
func NewCatalogService(db *gorm.DB, log *logger.Logger, rewards repos.RewardRepo, surveys repos.SurveyRepo, bucketService gcp.BucketService) CatalogService {
	return &catalogService{
		db:            db,
		log:           log.With("service", "CatalogService"),
		rewards:       rewards,
		surveys:       surveys,
		bucketService: bucketService,
	}
}

func (cs *catalogService) imageURL(r CatalogReward) *string {
	if u := strings.TrimSpace(r.ImageURL); u != "" {
		return &u
	}
	key := strings.TrimSpace(r.ImageKey)
	if key == "" {
		return nil
	}
	if cs.bucketService == nil {
		cs.log.Warn("reward image_key ignored; object storage disabled", "reward", r.Name, "image_key", key)
		return nil
	}
	u := cs.bucketService.GetPublicURL(gcp.BucketCategoryReward, key)
	if u == "" {
		return nil
	}
	return &u
}

func (cs *catalogService) Seed(ctx context.Context, c *Catalog) (*SeedResult, error) {
	if c == nil {
		return &SeedResult{}, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rewards := make([]*types.Reward, 0, len(c.Rewards))
	for _, r := range c.Rewards {
		rw := &types.Reward{
			Name:           strings.TrimSpace(r.Name),
			Description:    pointers.NonBlank(r.Description),
			RequiredStamps: r.RequiredStamps,
			ImageURL:       cs.imageURL(r),
			DisplayOrder:   r.DisplayOrder,
			IsActive:       r.Active == nil || *r.Active,
		}
		rewards = append(rewards, rw)
	}
	surveys := make([]*types.Survey, 0, len(c.Surveys))
	for _, s := range c.Surveys {
		surveys = append(surveys, &types.Survey{
			ID:           strings.TrimSpace(s.ID),
			Title:        strings.TrimSpace(s.Title),
			Description:  pointers.NonBlank(s.Description),
			RewardStamps: s.RewardStamps,
			IsActive:     s.Active == nil || *s.Active,
		})
	}

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cs.rewards.UpsertByName(ctx, tx, rewards); err != nil {
			return fmt.Errorf("upsert rewards: %w", err)
		}
		if err := cs.surveys.Upsert(ctx, tx, surveys); err != nil {
			return fmt.Errorf("upsert surveys: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("catalog seeded", "rewards", len(rewards), "surveys", len(surveys))
	return &SeedResult{Rewards: len(rewards), Surveys: len(surveys)}, nil
}
