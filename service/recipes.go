package service

import (
	"context"
	"strings"
	"time"

	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/logging"
	"github.com/studieren/foodgram_back/media"
	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRecipeName = 200

// ImageStore 菜谱图片存储
type ImageStore interface {
	SaveDataURI(dataURI string) (string, error)
	Remove(url string) error
}

type RecipeService struct {
	tool   *gormtool.CRUDTool
	images ImageStore
}

func NewRecipeService(tool *gormtool.CRUDTool, images ImageStore) *RecipeService {
	return &RecipeService{tool: tool, images: images}
}

// IngredientLine 写接口中的一行食材
type IngredientLine struct {
	ID     uint
	Amount int
}

// RecipeInput 创建时图片必填；更新时 Image 为空表示保留原图
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	Tags        []uint
	Ingredients []IngredientLine
}

// RecipeFilter 列表过滤条件。收藏与购物车过滤只对登录用户生效。
type RecipeFilter struct {
	Tags             []string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// List 分页列出菜谱，最新的在前
func (s *RecipeService) List(ctx context.Context, viewerID uint, f RecipeFilter, page gormtool.PageRequest) ([]models.Recipe, *gormtool.Pagination, error) {
	db := s.tool.DB.WithContext(ctx)

	qb := &gormtool.QueryBuilder{}
	if len(f.Tags) > 0 {
		qb.Where("recipes.id", "IN", db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.Tags))
	}
	if f.AuthorID != 0 {
		qb.Where("recipes.author_id", "=", f.AuthorID)
	}
	if viewerID != 0 && f.IsFavorited {
		qb.Where("", "EXISTS", db.Table("favorite_recipes").Select("1").
			Where("favorite_recipes.recipe_id = recipes.id AND favorite_recipes.user_id = ?", viewerID))
	}
	if viewerID != 0 && f.IsInShoppingCart {
		qb.Where("", "EXISTS", db.Table("shopping_carts").Select("1").
			Where("shopping_carts.recipe_id = recipes.id AND shopping_carts.user_id = ?", viewerID))
	}

	var recipes []models.Recipe
	q := s.tool.BuildQuery(db.Model(&models.Recipe{}), qb)
	p, err := s.tool.Paginate(q, page, &recipes,
		withRecipeFlags(viewerID), recipeDetail(viewerID), newestFirst("recipes"))
	if err != nil {
		return nil, nil, err
	}
	return recipes, p, nil
}

// Get 按 id 读取菜谱及全部关联
func (s *RecipeService) Get(ctx context.Context, viewerID, id uint) (*models.Recipe, error) {
	var r models.Recipe
	err := s.tool.DB.WithContext(ctx).
		Scopes(withRecipeFlags(viewerID), recipeDetail(viewerID)).
		First(&r, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// Create 在一个事务中写入菜谱、标签和食材行
func (s *RecipeService) Create(ctx context.Context, author *models.User, in RecipeInput) (recipe *models.Recipe, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "create_recipe", &models.Recipe{}, time.Since(start), err, map[string]interface{}{
			"author_id": author.ID,
		})
	}()

	if err = s.validate(ctx, in, true); err != nil {
		return nil, err
	}
	image, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}

	r := &models.Recipe{
		AuthorID:    author.ID,
		Name:        strings.TrimSpace(in.Name),
		Text:        in.Text,
		Image:       image,
		CookingTime: in.CookingTime,
	}
	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return err
		}
		return writeRelations(tx, r, in)
	})
	if err != nil {
		s.removeImage(ctx, image)
		return nil, err
	}
	return s.Get(ctx, author.ID, r.ID)
}

// Update 作者或管理员可修改；标签与食材整体替换
func (s *RecipeService) Update(ctx context.Context, user *models.User, id uint, in RecipeInput) (recipe *models.Recipe, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "update_recipe", &models.Recipe{}, time.Since(start), err, map[string]interface{}{
			"id":      id,
			"user_id": user.ID,
		})
	}()

	current, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err = s.validate(ctx, in, false); err != nil {
		return nil, err
	}

	image := current.Image
	if in.Image != "" {
		if image, err = s.saveImage(in.Image); err != nil {
			return nil, err
		}
	}

	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":         strings.TrimSpace(in.Name),
			"text":         in.Text,
			"image":        image,
			"cooking_time": in.CookingTime,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return writeRelations(tx, &models.Recipe{ID: id}, in)
	})
	if err != nil {
		if image != current.Image {
			s.removeImage(ctx, image)
		}
		return nil, err
	}
	if image != current.Image {
		s.removeImage(ctx, current.Image)
	}
	return s.Get(ctx, user.ID, id)
}

// Delete 作者或管理员可删除，同时清理关联行
func (s *RecipeService) Delete(ctx context.Context, user *models.User, id uint) (err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "delete_recipe", &models.Recipe{}, time.Since(start), err, map[string]interface{}{
			"id":      id,
			"user_id": user.ID,
		})
	}()

	current, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return err
	}

	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&models.RecipeIngredient{}, &models.FavoriteRecipe{}, &models.ShoppingCart{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return err
	}
	s.removeImage(ctx, current.Image)
	return nil
}

func (s *RecipeService) loadOwned(ctx context.Context, user *models.User, id uint) (*models.Recipe, error) {
	var r models.Recipe
	if err := s.tool.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	if r.AuthorID != user.ID && !user.IsAdmin {
		return nil, ErrForbidden
	}
	return &r, nil
}

// validate 检查字段、重复项以及引用的标签和食材是否存在
func (s *RecipeService) validate(ctx context.Context, in RecipeInput, create bool) error {
	verr := &ValidationError{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		verr.Add("name", "该字段不能为空")
	case len([]rune(name)) > maxRecipeName:
		verr.Add("name", "名称不能超过 200 个字符")
	}
	if strings.TrimSpace(in.Text) == "" {
		verr.Add("text", "该字段不能为空")
	}
	if in.CookingTime < 1 {
		verr.Add("cooking_time", "烹饪时间不能少于 1 分钟")
	}
	if create && in.Image == "" {
		verr.Add("image", "该字段不能为空")
	}

	if len(in.Tags) == 0 {
		verr.Add("tags", "至少选择一个标签")
	}
	tagIDs := make(map[uint]struct{}, len(in.Tags))
	for _, id := range in.Tags {
		if _, dup := tagIDs[id]; dup {
			verr.Add("tags", "标签不能重复")
			break
		}
		tagIDs[id] = struct{}{}
	}

	if len(in.Ingredients) == 0 {
		verr.Add("ingredients", "至少添加一种食材")
	}
	ingIDs := make(map[uint]struct{}, len(in.Ingredients))
	for _, line := range in.Ingredients {
		if line.Amount < 1 {
			verr.Add("ingredients", "食材数量不能少于 1")
			break
		}
		if _, dup := ingIDs[line.ID]; dup {
			verr.Add("ingredients", "食材不能重复")
			break
		}
		ingIDs[line.ID] = struct{}{}
	}
	if err := verr.Err(); err != nil {
		return err
	}

	db := s.tool.DB.WithContext(ctx)
	if n, err := countIDs(db, &models.Tag{}, keys(tagIDs)); err != nil {
		return err
	} else if n != int64(len(tagIDs)) {
		verr.Add("tags", "标签不存在")
	}
	if n, err := countIDs(db, &models.Ingredient{}, keys(ingIDs)); err != nil {
		return err
	} else if n != int64(len(ingIDs)) {
		verr.Add("ingredients", "食材不存在")
	}
	return verr.Err()
}

func (s *RecipeService) saveImage(dataURI string) (string, error) {
	url, err := s.images.SaveDataURI(dataURI)
	if err != nil {
		return "", NewValidationError("image", err.Error())
	}
	return url, nil
}

func (s *RecipeService) removeImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Remove(url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("删除图片失败")
	}
}

// writeRelations 替换标签并按输入顺序写入食材行
func writeRelations(tx *gorm.DB, r *models.Recipe, in RecipeInput) error {
	tags := make([]models.Tag, len(in.Tags))
	for i, id := range in.Tags {
		tags[i] = models.Tag{ID: id}
	}
	if err := tx.Model(r).Omit("Tags.*").Association("Tags").Replace(tags); err != nil {
		return err
	}

	lines := make([]models.RecipeIngredient, len(in.Ingredients))
	for i, l := range in.Ingredients {
		lines[i] = models.RecipeIngredient{RecipeID: r.ID, IngredientID: l.ID, Amount: l.Amount}
	}
	return tx.Omit("Ingredient").Create(&lines).Error
}

func countIDs(db *gorm.DB, model interface{}, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := db.Model(model).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func keys(m map[uint]struct{}) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// 确保 media.Store 满足 ImageStore
var _ ImageStore = (*media.Store)(nil)
