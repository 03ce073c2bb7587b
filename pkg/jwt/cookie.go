// Package jwt holds the cookies the shop keeps its tokens in.
package jwt

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	cookiePath = "/"
)

// CreateCookie returns an HttpOnly cookie for the whole site.
func CreateCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cookiePath,
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name string) *http.Cookie {
	ck := CreateCookie(name, "", time.Unix(0, 0))
	ck.MaxAge = -1
	return ck
}
