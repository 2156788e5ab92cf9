package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

type SummaryService struct {
	Store *repository.Store
	Guard *OwnershipGuard
	Cache *CourseCache
}

func NewSummaryService(store *repository.Store, guard *OwnershipGuard, cache *CourseCache) *SummaryService {
	return &SummaryService{Store: store, Guard: guard, Cache: cache}
}

func validateSummary(in *SummaryInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return util.NewValidationError("title", "summary title is required")
	}
	return nil
}

// Create 新建小结并追加到章节的 summaryIds，两者在同一事务内
func (s *SummaryService) Create(ctx context.Context, actor model.Actor, moduleID string, in *SummaryInput) (*model.Summary, error) {
	if err := validateSummary(in); err != nil {
		return nil, err
	}
	module, err := s.Store.Modules.FindByID(ctx, moduleID)
	if err != nil {
		return nil, translateError(err, "module")
	}
	if _, err := s.Guard.Authorize(ctx, actor, module.CourseID); err != nil {
		return nil, err
	}

	summary := &model.Summary{
		Title:    in.Title,
		Content:  in.Content,
		CourseID: module.CourseID,
		ModuleID: module.ID,
	}
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		m, err := tx.Modules.FindByID(ctx, moduleID)
		if err != nil {
			return err
		}
		if err := tx.Summaries.Create(ctx, summary); err != nil {
			return err
		}
		m.SummaryIDs = append(m.SummaryIDs, summary.ID)
		return tx.Modules.Save(ctx, m)
	})
	if err != nil {
		return nil, translateError(err, "module")
	}
	s.Cache.Invalidate(ctx, module.CourseID)
	return summary, nil
}

func (s *SummaryService) Update(ctx context.Context, actor model.Actor, summaryID string, in *SummaryInput) (*model.Summary, error) {
	if err := validateSummary(in); err != nil {
		return nil, err
	}
	summary, err := s.Store.Summaries.FindByID(ctx, summaryID)
	if err != nil {
		return nil, translateError(err, "summary")
	}
	if _, err := s.Guard.Authorize(ctx, actor, summary.CourseID); err != nil {
		return nil, err
	}

	summary.Title = in.Title
	summary.Content = in.Content
	if err := s.Store.Summaries.Save(ctx, summary); err != nil {
		return nil, translateError(err, "summary")
	}
	s.Cache.Invalidate(ctx, summary.CourseID)
	return summary, nil
}

// Delete 删除小结并从章节引用中移除
func (s *SummaryService) Delete(ctx context.Context, actor model.Actor, summaryID string) error {
	summary, err := s.Store.Summaries.FindByID(ctx, summaryID)
	if err != nil {
		return translateError(err, "summary")
	}
	if _, err := s.Guard.Authorize(ctx, actor, summary.CourseID); err != nil {
		return err
	}

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Summaries.Delete(ctx, summaryID); err != nil {
			return err
		}
		m, err := tx.Modules.FindByID(ctx, summary.ModuleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 章节已不存在时只删小结
			return nil
		}
		if err != nil {
			return err
		}
		kept := m.SummaryIDs[:0]
		for _, id := range m.SummaryIDs {
			if id != summaryID {
				kept = append(kept, id)
			}
		}
		m.SummaryIDs = kept
		return tx.Modules.Save(ctx, m)
	})
	if err != nil {
		return translateError(err, "summary")
	}
	s.Cache.Invalidate(ctx, summary.CourseID)
	return nil
}
