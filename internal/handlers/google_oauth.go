package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"quill/internal/db"
	"quill/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var googleOauthConfig *oauth2.Config

// InitGoogleOAuth configures Google sign-in. It stays disabled unless
// GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are set.
func InitGoogleOAuth() {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return
	}

	googleOauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  SiteURL() + "/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleOAuthEnabled reports whether Google sign-in is configured.
func GoogleOAuthEnabled() bool {
	return googleOauthConfig != nil
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GoogleLogin starts the Google OAuth flow.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !GoogleOAuthEnabled() {
		Render(c, http.StatusNotFound, "auth/login.html", gin.H{"Error": "Google sign-in is not configured"})
		return
	}

	state, err := generateStateToken()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to generate state token")
		return
	}

	// Stored in the session to verify the callback
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	url := googleOauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback finishes the OAuth flow, registering the account on first
// sign-in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if !GoogleOAuthEnabled() {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	session := sessions.Default(c)
	savedState := session.Get("oauth_state")

	if savedState == nil || c.Query("state") != savedState.(string) {
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Error": "Invalid OAuth state"})
		return
	}

	session.Delete("oauth_state")
	session.Save()

	code := c.Query("code")
	if code == "" {
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Error": "Missing authorization code"})
		return
	}

	token, err := googleOauthConfig.Exchange(context.Background(), code)
	if err != nil {
		Render(c, http.StatusInternalServerError, "auth/login.html", gin.H{"Error": "Failed to exchange access token"})
		return
	}

	userInfo, err := h.getGoogleUserInfo(token.AccessToken)
	if err != nil {
		Render(c, http.StatusInternalServerError, "auth/login.html", gin.H{"Error": "Failed to fetch Google profile"})
		return
	}

	if !userInfo.VerifiedEmail {
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Error": "Google email is not verified"})
		return
	}

	// Match by GoogleID first, then by email for accounts created with a password
	var user models.User
	err = db.DB.Where("google_id = ?", userInfo.ID).Or("email = ?", strings.ToLower(userInfo.Email)).First(&user).Error

	if err != nil {
		username := userInfo.GivenName
		if username == "" {
			username = strings.Split(userInfo.Email, "@")[0]
		}

		// GoogleID doubles as the initial password; it can be changed in settings
		newUser, err := h.createUser(username, userInfo.Email, userInfo.ID)
		if err != nil {
			Render(c, http.StatusInternalServerError, "auth/login.html", gin.H{"Error": "Failed to create account"})
			return
		}

		newUser.GoogleID = userInfo.ID
		newUser.GoogleEmail = userInfo.Email
		db.DB.Save(newUser)

		user = *newUser
	} else if user.GoogleID == "" {
		user.GoogleID = userInfo.ID
		user.GoogleEmail = userInfo.Email
		db.DB.Save(&user)
	}

	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) getGoogleUserInfo(accessToken string) (*GoogleUserInfo, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var userInfo GoogleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
