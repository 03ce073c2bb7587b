package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/tokens"
)

func TestRegisterAndSelf(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodPost, "/api/v1/users", transport.RegisterRequest{Username: "anna", Password: "long password"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[map[string]any](t, rec)
	assert.NotContains(t, registered, "password_hash")
	assert.Equal(t, tokens.RoleUser, registered["role"])

	rec = env.serve(http.MethodPost, "/api/v1/users", transport.RegisterRequest{Username: "anna", Password: "long password"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var user models.User
	require.NoError(t, env.Fx.DB.Where("username = ?", "anna").First(&user).Error)

	assert.Equal(t, http.StatusUnauthorized, env.serve(http.MethodGet, "/api/v1/users/self", nil).Code)

	rec = env.serve(http.MethodPatch, "/api/v1/users/self", transport.PatchUserRequest{Surname: ptr("Ivanova")}, env.cookieFor(&user))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ivanova", decode[models.User](t, rec).Surname)

	rec = env.serve(http.MethodPatch, "/api/v1/users/self", transport.PatchUserRequest{Role: ptr(tokens.RoleAdmin)}, env.cookieFor(&user))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.serve(http.MethodGet, "/api/v1/users", nil, env.cookieFor(&user))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.Fx.User("root", tokens.RoleAdmin)
	u := env.Fx.User("anna", tokens.RoleUser)

	rec := env.serve(http.MethodGet, "/api/v1/users?page=1&size=1", nil, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Data []models.User `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"has_next"`
		} `json:"meta"`
	}](t, rec)
	assert.Len(t, page.Data, 1)
	assert.EqualValues(t, 2, page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	rec = env.serve(http.MethodPatch, "/api/v1/users/"+itoa(u.ID), transport.PatchUserRequest{Role: ptr(tokens.RoleAdmin)}, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, tokens.RoleAdmin, decode[models.User](t, rec).Role)

	rec = env.serve(http.MethodDelete, "/api/v1/users/"+itoa(u.ID), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.serve(http.MethodGet, "/api/v1/users/"+itoa(u.ID), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentAndWishlistRoutes(t *testing.T) {
	env := newTestEnv(t)
	p := env.Fx.Product(models.Product{Title: "Pixel", Price: 1})
	author := env.Fx.User("author", tokens.RoleUser)
	other := env.Fx.User("other", tokens.RoleUser)

	rec := env.serve(http.MethodPost, "/api/v1/comments", transport.CommentRequest{ProductID: p.ID, Text: "nice"}, env.cookieFor(author))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[models.Comment](t, rec)

	rec = env.serve(http.MethodGet, "/api/v1/comments?product_id="+itoa(p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Data []struct {
			Text     string `json:"text"`
			Username string `json:"username"`
		} `json:"data"`
	}](t, rec)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "author", list.Data[0].Username)

	assert.Equal(t, http.StatusBadRequest, env.serve(http.MethodGet, "/api/v1/comments", nil).Code)

	rec = env.serve(http.MethodPatch, "/api/v1/comments/"+itoa(comment.ID), transport.PatchCommentRequest{Text: "mine now"}, env.cookieFor(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.serve(http.MethodDelete, "/api/v1/comments/"+itoa(comment.ID), nil, env.cookieFor(author))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	wishPath := "/api/v1/wish_list/" + itoa(p.ID)
	assert.Equal(t, http.StatusUnauthorized, env.serve(http.MethodPost, wishPath, nil).Code)
	assert.Equal(t, http.StatusCreated, env.serve(http.MethodPost, wishPath, nil, env.cookieFor(author)).Code)
	assert.Equal(t, http.StatusNotFound, env.serve(http.MethodPost, "/api/v1/wish_list/999", nil, env.cookieFor(author)).Code)

	rec = env.serve(http.MethodGet, "/api/v1/wish_list", nil, env.cookieFor(author))
	require.Equal(t, http.StatusOK, rec.Code)
	wl := decode[struct {
		Data []models.WishlistItem `json:"data"`
	}](t, rec)
	require.Len(t, wl.Data, 1)

	assert.Equal(t, http.StatusNoContent, env.serve(http.MethodDelete, wishPath, nil, env.cookieFor(author)).Code)
	assert.Equal(t, http.StatusNotFound, env.serve(http.MethodDelete, wishPath, nil, env.cookieFor(author)).Code)
}

func TestDeliveryRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.Fx.User("root", tokens.RoleAdmin)
	user := env.Fx.User("anna", tokens.RoleUser)
	p := env.Fx.Product(models.Product{Title: "Pixel", Price: 100})

	rec := env.serve(http.MethodPost, "/api/v1/vendors", transport.VendorRequest{FirstName: "Oleg", Surname: "Petrov"}, env.cookieFor(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	vendor := decode[models.Vendor](t, rec)

	body := transport.CreateDeliveryRequest{
		VendorID:      vendor.ID,
		DeliveryPrice: 300,
		Details:       []transport.DeliveryLineRequest{{ProductID: p.ID, PriceOnePhone: 70, Amount: 6}},
	}
	assert.Equal(t, http.StatusForbidden, env.serve(http.MethodPost, "/api/v1/deliveries", body, env.cookieFor(user)).Code)

	rec = env.serve(http.MethodPost, "/api/v1/deliveries", body, env.cookieFor(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	delivery := decode[models.Delivery](t, rec)
	require.Len(t, delivery.Lines, 1)
	assert.EqualValues(t, 6, env.Fx.Stock(p.ID))

	rec = env.serve(http.MethodPatch, "/api/v1/deliveries/lines/"+itoa(delivery.Lines[0].ID),
		transport.PatchDeliveryLineRequest{Amount: ptr(int64(4))}, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 4, env.Fx.Stock(p.ID))

	rec = env.serve(http.MethodGet, "/api/v1/vendors", nil, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.serve(http.MethodDelete, "/api/v1/vendors/"+itoa(vendor.ID), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.serve(http.MethodDelete, "/api/v1/deliveries/"+itoa(delivery.ID), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.Fx.Stock(p.ID))

	rec = env.serve(http.MethodDelete, "/api/v1/vendors/"+itoa(vendor.ID), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func ptr[T any](v T) *T { return &v }
