package repo

import (
	"context"

	"github.com/Skotchmaster/phone_shop/internal/models"
)

type CommentView struct {
	models.Comment
	Username string `json:"username"`
}

func (r *GormRepo) ListComments(ctx context.Context, productID uint) ([]CommentView, error) {
	views := make([]CommentView, 0)
	err := r.DB.WithContext(ctx).
		Table("comments").
		Select("comments.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.product_id = ?", productID).
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (r *GormRepo) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) UpdateCommentText(ctx context.Context, c *models.Comment, text string) error {
	return r.DB.WithContext(ctx).Model(c).Update("text", text).Error
}

func (r *GormRepo) DeleteComment(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("comment", id)
	}
	return nil
}
