package handlers

import (
	"net/http"
	"strings"

	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/services"
	"quill/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	mailService    *services.MailService
	captchaService *services.CaptchaService
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{
		mailService:    services.NewMailService(),
		captchaService: services.NewCaptchaService(),
	}
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set("captcha_answer", answer)
	session.Save()
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Captcha": question})
}

func (h *AuthHandler) createUser(username, email, password string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: username,
		Email:    strings.ToLower(email),
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := db.DB.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// registerError re-renders the signup form with a fresh captcha.
func (h *AuthHandler) registerError(c *gin.Context, message string) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set("captcha_answer", answer)
	session.Save()
	Render(c, http.StatusBadRequest, "auth/register.html", gin.H{
		"Error":    message,
		"Captcha":  question,
		"Username": c.PostForm("username"),
		"Email":    c.PostForm("email"),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	captchaInput := c.PostForm("captcha")

	session := sessions.Default(c)
	expectedAnswer, ok := session.Get("captcha_answer").(int)
	if !ok || utils.StringToInt(captchaInput) != expectedAnswer {
		h.registerError(c, "Wrong answer, try again")
		return
	}
	// Clear captcha after use
	session.Delete("captcha_answer")
	session.Save()

	if len(password) < 6 {
		h.registerError(c, "Password must be at least 6 characters")
		return
	}

	user, err := h.createUser(username, email, password)
	if err != nil {
		h.registerError(c, "Could not create account, the email may already be registered")
		return
	}

	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Next": c.Query("next")})
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	var user models.User
	if err := db.DB.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Error": "Wrong email or password"})
		return
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Error": "Wrong email or password"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	// Only follow local redirect targets
	next := c.PostForm("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowForgotPassword(c *gin.Context) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set("reset_captcha_answer", answer)
	session.Save()
	Render(c, http.StatusOK, "auth/forgot_password.html", gin.H{"Captcha": question})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	captchaInput := c.PostForm("captcha")

	session := sessions.Default(c)
	expectedAnswer, ok := session.Get("reset_captcha_answer").(int)
	if !ok || utils.StringToInt(captchaInput) != expectedAnswer {
		question, answer := h.captchaService.GenerateMathProblem()
		session.Set("reset_captcha_answer", answer)
		session.Save()
		Render(c, http.StatusBadRequest, "auth/forgot_password.html", gin.H{"Error": "Wrong answer, try again", "Captcha": question})
		return
	}
	session.Delete("reset_captcha_answer")
	session.Save()

	var user models.User
	if err := db.DB.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		// Don't reveal whether the address is registered.
		Render(c, http.StatusOK, "auth/reset_password.html", gin.H{"Success": "If that address is registered, a reset code is on its way.", "Email": email})
		return
	}

	code := utils.GenerateRandomCode(6)
	user.VerifyCode = code
	db.DB.Save(&user)
	h.mailService.SendPasswordResetEmail(user.Email, code)

	Render(c, http.StatusOK, "auth/reset_password.html", gin.H{"Email": email})
}

func (h *AuthHandler) ShowResetPassword(c *gin.Context) {
	email := c.Query("email")
	Render(c, http.StatusOK, "auth/reset_password.html", gin.H{"Email": email})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	code := c.PostForm("code")
	newPassword := c.PostForm("password")

	var user models.User
	if err := db.DB.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		Render(c, http.StatusBadRequest, "auth/reset_password.html", gin.H{"Error": "Unknown account", "Email": email})
		return
	}

	if user.VerifyCode == "" || user.VerifyCode != code {
		Render(c, http.StatusBadRequest, "auth/reset_password.html", gin.H{"Error": "Wrong or expired reset code", "Email": email})
		return
	}

	if len(newPassword) < 6 {
		Render(c, http.StatusBadRequest, "auth/reset_password.html", gin.H{"Error": "Password must be at least 6 characters", "Email": email})
		return
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		Render(c, http.StatusInternalServerError, "auth/reset_password.html", gin.H{"Error": "Could not reset password", "Email": email})
		return
	}
	user.Password = hash
	user.VerifyCode = "" // Clear code
	db.DB.Save(&user)

	Render(c, http.StatusOK, "auth/login.html", gin.H{"Success": "Password changed, you can sign in now"})
}

// RefreshCaptcha serves a fresh math problem over AJAX.
func (h *AuthHandler) RefreshCaptcha(c *gin.Context) {
	captchaType := c.Query("type") // "register" or "reset"
	question, answer := h.captchaService.GenerateMathProblem()

	session := sessions.Default(c)
	if captchaType == "reset" {
		session.Set("reset_captcha_answer", answer)
	} else {
		session.Set("captcha_answer", answer)
	}
	session.Save()

	c.JSON(http.StatusOK, gin.H{"captcha": question})
}
