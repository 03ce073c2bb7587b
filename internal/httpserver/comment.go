package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

type CommentHTTP struct {
	Svc *service.CommentService
}

func (h *CommentHTTP) ListComments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.list_comments")

	productID, err := queryUint(c, "product_id")
	if err != nil {
		return badRequest(l, "list_comments_error", err.Error(), err)
	}
	if productID == 0 {
		return badRequest(l, "list_comments_error", "product_id required", errors.New("missing product_id"))
	}

	comments, err := h.Svc.ListComments(ctx, productID)
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": comments})
}

func (h *CommentHTTP) CreateComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.create_comment")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "create_comment_error")
	}
	var req transport.CommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_comment_error", "invalid body", err)
	}

	comment, err := h.Svc.CreateComment(ctx, actor.UserID, req)
	if err != nil {
		return fail(l, "create_comment_error", err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHTTP) PatchComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.patch_comment")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "patch_comment_error")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_comment_error", err.Error(), err)
	}
	var req transport.PatchCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_comment_error", "invalid body", err)
	}

	comment, err := h.Svc.PatchComment(ctx, id, actor, req)
	if err != nil {
		return fail(l, "patch_comment_error", err)
	}
	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHTTP) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.delete_comment")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "delete_comment_error")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_comment_error", err.Error(), err)
	}
	if err := h.Svc.DeleteComment(ctx, id, actor); err != nil {
		return fail(l, "delete_comment_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
