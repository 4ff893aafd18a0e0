package repository

import (
	"errors"
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create 发表评论
func (r *CommentRepository) Create(c *model.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return r.db.Create(c).Error
}

// ListByMovie 获取影片评论（最新在前）
func (r *CommentRepository) ListByMovie(slug string, limit, offset int) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.Where("movie_slug = ?", slug).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, err
}

// CountByMovie 统计影片评论数
func (r *CommentRepository) CountByMovie(slug string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).Where("movie_slug = ?", slug).Count(&count).Error
	return count, err
}

// FindByID 根据 ID 查找，不存在返回 nil, nil
func (r *CommentRepository) FindByID(id int) (*model.Comment, error) {
	var c model.Comment
	err := r.db.First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteByOwner 只能删除自己的评论，返回是否删除成功
func (r *CommentRepository) DeleteByOwner(userID, id int) (bool, error) {
	result := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Comment{})
	return result.RowsAffected > 0, result.Error
}
