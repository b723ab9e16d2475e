package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

const (
	guestCookie = "me_guest_id"
	guestPrefix = "guest|"
)

// POST /auth/guest issues a learner token. A returning browser keeps its
// guest id through a cookie, so its attempt history stays attached to it.
func GuestLoginHandler(a *AuthService, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}
		sub := ""
		if c, err := r.Cookie(guestCookie); err == nil && isGuestID(c.Value) {
			sub = c.Value
		} else {
			sub = guestPrefix + uuid.NewString()
		}
		tok, err := a.IssueJWT(sub, rbac.RoleLearner)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    sub,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, Subject: sub, Role: rbac.RoleLearner})
	}
}

func isGuestID(v string) bool {
	id, ok := strings.CutPrefix(v, guestPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
