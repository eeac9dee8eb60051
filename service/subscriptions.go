package service

import (
	"context"
	"time"

	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
)

// Subscription 关注列表中的一项：作者、最近的菜谱和菜谱总数
type Subscription struct {
	Author  models.User
	Recipes []models.Recipe
}

type SubscriptionService struct {
	tool *gormtool.CRUDTool
}

func NewSubscriptionService(tool *gormtool.CRUDTool) *SubscriptionService {
	return &SubscriptionService{tool: tool}
}

// Subscribe userID 关注 authorID，返回带最近菜谱的作者信息
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (sub *Subscription, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "subscribe", &models.Subscribe{}, time.Since(start), err, map[string]interface{}{
			"user_id":   userID,
			"author_id": authorID,
		})
	}()

	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.User{}, authorID); err != nil {
			return err
		}
		if userID == authorID {
			return NewValidationError("errors", "不能关注自己")
		}

		var count int64
		if err := tx.Model(&models.Subscribe{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return NewValidationError("errors", "已经关注了该作者")
		}

		if err := tx.Omit("User", "Author").Create(&models.Subscribe{UserID: userID, AuthorID: authorID}).Error; err != nil {
			if isDuplicate(err) {
				return NewValidationError("errors", "已经关注了该作者")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	subs, err := s.load(ctx, []uint{authorID}, recipesLimit)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNotFound
	}
	return &subs[0], nil
}

// Unsubscribe 取消关注；未关注时同样成功，作者不存在返回 ErrNotFound
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) (err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "unsubscribe", &models.Subscribe{}, time.Since(start), err, map[string]interface{}{
			"user_id":   userID,
			"author_id": authorID,
		})
	}()

	return s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.User{}, authorID); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Subscribe{}).Error
	})
}

// List 当前用户关注的作者，按关注时间先后分页；recipesLimit<=0 表示不限制每位作者的菜谱数
func (s *SubscriptionService) List(ctx context.Context, userID uint, page gormtool.PageRequest, recipesLimit int) ([]Subscription, *gormtool.Pagination, error) {
	var rows []models.Subscribe
	q := s.tool.DB.WithContext(ctx).Model(&models.Subscribe{}).Where("user_id = ?", userID)
	p, err := s.tool.Paginate(q, page, &rows, func(db *gorm.DB) *gorm.DB {
		return db.Order("subscribes.id")
	})
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.AuthorID
	}
	subs, err := s.load(ctx, ids, recipesLimit)
	if err != nil {
		return nil, nil, err
	}
	return subs, p, nil
}

// IsSubscribed userID 是否关注了 authorID
func (s *SubscriptionService) IsSubscribed(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := s.tool.DB.WithContext(ctx).Model(&models.Subscribe{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count).Error
	return count > 0, err
}

// load 按给定顺序加载作者、菜谱数量和最近菜谱
func (s *SubscriptionService) load(ctx context.Context, authorIDs []uint, recipesLimit int) ([]Subscription, error) {
	if len(authorIDs) == 0 {
		return []Subscription{}, nil
	}
	db := s.tool.DB.WithContext(ctx)

	var authors []models.User
	if err := db.Select("users.*, (SELECT COUNT(*) FROM recipes r WHERE r.author_id = users.id) AS recipes_count").
		Where("users.id IN ?", authorIDs).
		Find(&authors).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(authors))
	for _, a := range authors {
		a.IsSubscribed = true
		byID[a.ID] = a
	}

	subs := make([]Subscription, 0, len(authorIDs))
	for _, id := range authorIDs {
		author, ok := byID[id]
		if !ok {
			continue
		}
		var recipes []models.Recipe
		q := db.Where("author_id = ?", id).Scopes(newestFirst("recipes"))
		if recipesLimit > 0 {
			q = q.Limit(recipesLimit)
		}
		if err := q.Find(&recipes).Error; err != nil {
			return nil, err
		}
		subs = append(subs, Subscription{Author: author, Recipes: recipes})
	}
	return subs, nil
}

// ensureExists 记录不存在时返回 ErrNotFound
func ensureExists(db *gorm.DB, model interface{}, id uint) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
