package webserver

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/config"
	"github.com/clubwize/backend/src/api/data"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/mail"
	"github.com/clubwize/backend/src/api/types"
)

type Auth struct {
	db     *gorm.DB
	rdb    *redis.Client
	mailer mail.Service
	cfg    config.Config
}

func NewAuth(db *gorm.DB, rdb *redis.Client, mailer mail.Service, cfg config.Config) Auth {
	return Auth{db: db, rdb: rdb, mailer: mailer, cfg: cfg}
}

func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (a Auth) tokenTTL() time.Duration {
	return time.Duration(a.cfg.TokenTTLMin) * time.Minute
}

func (a Auth) Signup(c *gin.Context) {
	var req struct {
		UserName  string `json:"userName" binding:"required,min=3,max=64"`
		Email     string `json:"email" binding:"required,email,max=256"`
		Password  string `json:"password" binding:"required,min=8,max=72"`
		FirstName string `json:"firstName" binding:"max=64"`
		LastName  string `json:"lastName" binding:"max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger.S().Infof("signup attempt for %s from %s", email, c.ClientIP())

	var existing types.User
	if err := a.db.First(&existing, "email = ? OR user_name = ?", email, req.UserName).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"err": "a user with this email or username already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	usr := types.User{
		UserName:  req.UserName,
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	// User row and password hash land together or not at all.
	tx := a.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&usr).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Model(&types.User{}).Where("id = ?", usr.ID).Update("password", string(hash)).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	if err := a.sendOTP(c, email, req.FirstName); err != nil {
		logger.S().Errorf("failed to send OTP to %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to send verification code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": usr.ID, "message": "verification code sent"})
}

func (a Auth) sendOTP(c *gin.Context, email, name string) error {
	code, err := randomOTP()
	if err != nil {
		return err
	}
	if err := data.SetOTP(c, a.rdb, email, code); err != nil {
		return err
	}
	return a.mailer.Send(c, mail.Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Your Clubwize verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code),
	})
}

func (a Auth) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	code, err := data.GetOTP(c, a.rdb, email)
	if err != nil || code != req.Code {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid or expired code"})
		return
	}
	// Delete only after a successful match.
	data.DelOTP(c, a.rdb, email)

	var usr types.User
	if err := a.db.First(&usr, "email = ?", email).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	if err := a.db.Model(&types.User{}).Where("id = ?", usr.ID).Update("email_verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	token, err := issueJWT(usr.ID, usr.Email, []byte(a.cfg.JWTSecret), a.tokenTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("verified %s", email)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a Auth) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var usr types.User
	if err := a.db.First(&usr, "email = ?", email).Error; err != nil {
		// Do not reveal whether the address is registered.
		c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a code was sent"})
		return
	}
	if usr.EmailVerified {
		c.JSON(http.StatusBadRequest, gin.H{"err": "email already verified"})
		return
	}

	if err := a.sendOTP(c, email, usr.FirstName); err != nil {
		logger.S().Errorf("failed to resend OTP to %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to send verification code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a code was sent"})
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var usr types.User
	if err := a.db.First(&usr, "email = ?", email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usr.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}
	if !usr.EmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"err": "email not verified"})
		return
	}
	if usr.IsBlocked {
		c.JSON(http.StatusForbidden, gin.H{"err": "account disabled"})
		return
	}

	token, err := issueJWT(usr.ID, usr.Email, []byte(a.cfg.JWTSecret), a.tokenTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("login %s", email)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a Auth) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var usr types.User
	if err := a.db.First(&usr, "email = ?", email).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a reset link was sent"})
		return
	}

	token := uuid.NewString()
	if err := data.SetResetToken(c, a.rdb, token, email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", a.cfg.UIBaseURL, token)
	if err := a.mailer.Send(c, mail.Message{
		ToName:  usr.FirstName,
		ToEmail: email,
		Subject: "Reset your Clubwize password",
		Body:    fmt.Sprintf("Follow this link to set a new password: %s\nThe link expires in 30 minutes.", link),
	}); err != nil {
		logger.S().Errorf("failed to send reset link to %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to send reset link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a reset link was sent"})
}

func (a Auth) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email, err := data.GetAndDelResetToken(c, a.rdb, req.Token)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.JSON(http.StatusForbidden, gin.H{"err": "invalid or expired token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := a.db.Model(&types.User{}).Where("email = ?", email).Update("password", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("password reset for %s", email)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
