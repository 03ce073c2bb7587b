package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/transport"
)

type CommentService struct {
	Repo *repo.GormRepo
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := checkVar("text", text, "required,max=200"); err != nil {
		return "", err
	}
	return text, nil
}

func (s *CommentService) ListComments(ctx context.Context, productID uint) ([]repo.CommentView, error) {
	views, err := s.Repo.ListComments(ctx, productID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return views, nil
}

func (s *CommentService) CreateComment(ctx context.Context, userID uint, req transport.CommentRequest) (*models.Comment, error) {
	text, err := validateCommentText(req.Text)
	if err != nil {
		return nil, err
	}
	ok, err := s.Repo.ProductExists(ctx, req.ProductID)
	if err != nil {
		return nil, storeErr("check product", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
	}
	c := &models.Comment{ProductID: req.ProductID, UserID: userID, Text: text}
	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, storeErr("insert comment", err)
	}
	return c, nil
}

func (s *CommentService) PatchComment(ctx context.Context, id uint, actor Actor, req transport.PatchCommentRequest) (*models.Comment, error) {
	text, err := validateCommentText(req.Text)
	if err != nil {
		return nil, err
	}
	c, err := s.Repo.GetComment(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read comment %d", id), err)
	}
	if c.UserID != actor.UserID {
		return nil, fmt.Errorf("%w: only the author may edit a comment", ErrForbidden)
	}
	if err := s.Repo.UpdateCommentText(ctx, c, text); err != nil {
		return nil, storeErr("update comment", err)
	}
	return c, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, id uint, actor Actor) error {
	c, err := s.Repo.GetComment(ctx, id)
	if err != nil {
		return storeErr(fmt.Sprintf("read comment %d", id), err)
	}
	if !actor.Admin && c.UserID != actor.UserID {
		return fmt.Errorf("%w: comment %d belongs to another user", ErrForbidden, id)
	}
	if err := s.Repo.DeleteComment(ctx, id); err != nil {
		return storeErr("delete comment", err)
	}
	return nil
}
