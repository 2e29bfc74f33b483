package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/ledgerx/ledgerx-backend/pkg/email"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	otpValidity        = 10 * time.Minute
	resetTokenValidity = time.Hour
	accessTokenTTL     = 24 * time.Hour
	refreshTokenTTL    = 7 * 24 * time.Hour
)

type Handler struct {
	db           *gorm.DB
	googleConfig *oauth2.Config
	emailService *email.EmailService
}

func NewHandler(db *gorm.DB) *Handler {
	googleConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}

	return &Handler{
		db:           db,
		googleConfig: googleConfig,
		emailService: email.NewEmailService(),
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	ShopName  string `json:"shop_name" binding:"required"`
	OwnerName string `json:"owner_name" binding:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"` // link flow
	Email       string `json:"email"` // otp flow
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         database.User `json:"user"`
	Shop         database.Shop `json:"shop"`
	IsNewUser    bool          `json:"is_new_user,omitempty"`
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default-secret-change-in-production"
	}
	return []byte(secret)
}

func generateTokens(userID, shopID uuid.UUID) (access string, refresh string, err error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"shop_id": shopID.String(),
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(accessTokenTTL).Unix(),
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(jwtSecret())
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"shop_id": shopID.String(),
		"type":    "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(refreshTokenTTL).Unix(),
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(jwtSecret())
	return access, refresh, err
}

// generateOTP returns a 6-digit numeric code
func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// Register creates an unverified user with their shop and emails an OTP
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user := database.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	otp := generateOTP()

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		shop := database.Shop{
			UserID:    user.ID,
			ShopName:  req.ShopName,
			OwnerName: req.OwnerName,
		}
		if err := tx.Create(&shop).Error; err != nil {
			return err
		}
		return tx.Create(&database.EmailOTP{
			UserID:  user.ID,
			OTP:     otp,
			Purpose: database.OTPPurposeRegister,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	// Best effort: a failed email never undoes the created account
	if err := h.emailService.SendOTP(req.Email, req.OwnerName, otp, database.OTPPurposeRegister); err != nil {
		log.Printf("Warning: failed to send verification email to %s: %v", req.Email, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registered. Check your email for the verification code.",
	})
}

// VerifyOTP confirms the registration code and activates the account
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		return
	}

	var otp database.EmailOTP
	if err := h.db.Where(
		"user_id = ? AND otp = ? AND purpose = ? AND is_used = ? AND created_at > ?",
		user.ID, req.OTP, database.OTPPurposeRegister, false, time.Now().Add(-otpValidity),
	).First(&otp).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_verified", true).Error; err != nil {
			return err
		}
		return tx.Model(&otp).Update("is_used", true).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify"})
		return
	}

	var shop database.Shop
	h.db.Where("user_id = ?", user.ID).First(&shop)
	if err := h.emailService.SendWelcome(user.Email, shop.OwnerName, shop.ShopName); err != nil {
		log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified. You can log in now."})
}

// Login authenticates with username (or email) and password
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.db.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}
	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified"})
		return
	}

	var shop database.Shop
	if err := h.db.Where("user_id = ?", user.ID).First(&shop).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shop not found for account"})
		return
	}

	access, refresh, err := generateTokens(user.ID, shop.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
		User:         user,
		Shop:         shop,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := jwt.Parse(req.RefreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "refresh" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	userClaim, userOK := claims["user_id"].(string)
	shopClaim, shopOK := claims["shop_id"].(string)
	if !userOK || !shopOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	userID, err := uuid.Parse(userClaim)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	shopID, err := uuid.Parse(shopClaim)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	var user database.User
	if err := h.db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer active"})
		return
	}

	access, refresh, err := generateTokens(userID, shopID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    int64(accessTokenTTL.Seconds()),
	})
}

// GoogleLogin redirects to Google OAuth consent screen
func (h *Handler) GoogleLogin(c *gin.Context) {
	// State token for CSRF protection
	state := uuid.New().String()
	c.SetCookie("oauth_state", state, 300, "/", "", false, true)

	url := h.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles the OAuth callback from Google. A first sign-in
// provisions the user and an empty shop profile.
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	storedState, err := c.Cookie("oauth_state")
	if err != nil || state != storedState {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state parameter"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No authorization code"})
		return
	}

	token, err := h.googleConfig.Exchange(context.Background(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange token"})
		return
	}

	userInfo, err := h.getGoogleUserInfo(token.AccessToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
		return
	}
	if !userInfo.VerifiedEmail {
		c.JSON(http.StatusForbidden, gin.H{"error": "Google email not verified"})
		return
	}

	var user database.User
	isNewUser := false
	err = h.db.Where("google_id = ? OR email = ?", userInfo.ID, userInfo.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		isNewUser = true
		user = database.User{
			Username:   userInfo.Email,
			Email:      userInfo.Email,
			GoogleID:   userInfo.ID,
			IsVerified: true, // Google already verified the address
		}
		err = h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&database.Shop{
				UserID:    user.ID,
				ShopName:  userInfo.Name + "'s Shop",
				OwnerName: userInfo.Name,
			}).Error
		})
	} else if err == nil && user.GoogleID == "" {
		// Link the Google identity to an existing password account
		err = h.db.Model(&user).Updates(map[string]interface{}{
			"google_id":   userInfo.ID,
			"is_verified": true,
		}).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	var shop database.Shop
	if err := h.db.Where("user_id = ?", user.ID).First(&shop).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shop not found for account"})
		return
	}

	access, refresh, err := generateTokens(user.ID, shop.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
		User:         user,
		Shop:         shop,
		IsNewUser:    isNewUser,
	})
}

func (h *Handler) getGoogleUserInfo(accessToken string) (*GoogleUserInfo, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ForgotPassword sends both a reset code and a reset link. The response is
// identical whether or not the email exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"message": "If that email is registered, reset instructions are on their way."}

	var user database.User
	if err := h.db.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	otp := generateOTP()
	resetToken := uuid.New()
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&database.EmailOTP{
			UserID:  user.ID,
			OTP:     otp,
			Purpose: database.OTPPurposeReset,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&database.PasswordResetToken{
			UserID: user.ID,
			Token:  resetToken,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start password reset"})
		return
	}

	var shop database.Shop
	h.db.Where("user_id = ?", user.ID).First(&shop)
	name := shop.OwnerName
	if name == "" {
		name = user.Username
	}

	if err := h.emailService.SendOTP(user.Email, name, otp, database.OTPPurposeReset); err != nil {
		log.Printf("Warning: failed to send reset code to %s: %v", user.Email, err)
	}
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL != "" {
		if err := h.emailService.SendPasswordResetLink(user.Email, name, resetToken.String(), frontendURL); err != nil {
			log.Printf("Warning: failed to send reset link to %s: %v", user.Email, err)
		}
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword accepts either the emailed link token or the email+OTP pair
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User

	switch {
	case req.Token != "":
		tokenUUID, err := uuid.Parse(req.Token)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset token"})
			return
		}
		var reset database.PasswordResetToken
		if err := h.db.Where(
			"token = ? AND is_used = ? AND created_at > ?",
			tokenUUID, false, time.Now().Add(-resetTokenValidity),
		).First(&reset).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset token"})
			return
		}
		if err := h.db.First(&user, "id = ?", reset.UserID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset token"})
			return
		}
		if err := h.applyNewPassword(&user, req.NewPassword, func(tx *gorm.DB) error {
			return tx.Model(&reset).Update("is_used", true).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
			return
		}

	case req.Email != "" && req.OTP != "":
		if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
			return
		}
		var otp database.EmailOTP
		if err := h.db.Where(
			"user_id = ? AND otp = ? AND purpose = ? AND is_used = ? AND created_at > ?",
			user.ID, req.OTP, database.OTPPurposeReset, false, time.Now().Add(-otpValidity),
		).First(&otp).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
			return
		}
		if err := h.applyNewPassword(&user, req.NewPassword, func(tx *gorm.DB) error {
			return tx.Model(&otp).Update("is_used", true).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
			return
		}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide a reset token or email and code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated. You can log in now."})
}

func (h *Handler) applyNewPassword(user *database.User, newPassword string, consume func(tx *gorm.DB) error) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			return err
		}
		return consume(tx)
	})
}

// GetMe returns the authenticated user and shop
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetString("user_id")
	shopID := c.GetString("shop_id")

	var user database.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	var shop database.Shop
	if err := h.db.First(&shop, "id = ?", shopID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "shop": shop})
}

type UpdateShopRequest struct {
	ShopName  string `json:"shop_name" binding:"required"`
	OwnerName string `json:"owner_name" binding:"required"`
	UPIID     string `json:"upi_id"`
}

// GetShop returns the shop profile
func (h *Handler) GetShop(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var shop database.Shop
	if err := h.db.First(&shop, "id = ?", shopID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shop})
}

// UpdateShop updates the shop profile, including the UPI payee VPA used
// by payment links
func (h *Handler) UpdateShop(c *gin.Context) {
	var req UpdateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID := c.GetString("shop_id")

	var shop database.Shop
	if err := h.db.First(&shop, "id = ?", shopID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
		return
	}

	if err := h.db.Model(&shop).Updates(map[string]interface{}{
		"shop_name":  req.ShopName,
		"owner_name": req.OwnerName,
		"upi_id":     req.UPIID,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update shop"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": shop})
}
