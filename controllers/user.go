// controllers/user.go
package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"unityshop-backend/middleware"
	"unityshop-backend/models"
	"unityshop-backend/utils"
)

// UserController covers the minimal account surface: register, login
// and profile. Everything else about accounts is another service's
// problem.
type UserController struct {
	Collection *mongo.Collection
	Log        *zap.Logger
	validate   *validator.Validate
}

// NewUserController creates a new UserController.
func NewUserController(client *mongo.Client, log *zap.Logger) *UserController {
	return &UserController{
		Collection: utils.Collection(client, "users"),
		Log:        log,
		validate:   validator.New(),
	}
}

// Register handles POST /auth/register.
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := uc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "name, email and a password of at least 6 characters are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := requestContext(r)
	defer cancel()

	count, err := uc.Collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		uc.Log.Error("user lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to register")
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, "User already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.Log.Error("password hash failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	user := models.User{
		Name:      req.Name,
		Email:     email,
		Password:  string(hashed),
		Role:      models.RoleBuyer,
		Wishlist:  []string{},
		CreatedAt: time.Now(),
	}
	result, err := uc.Collection.InsertOne(ctx, user)
	if err != nil {
		uc.Log.Error("user insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to register")
		return
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}

	token, err := utils.GenerateJWT(user.Email, user.Role)
	if err != nil {
		uc.Log.Error("token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /auth/login.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := uc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var user models.User
	err := uc.Collection.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		uc.Log.Error("user lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateJWT(user.Email, user.Role)
	if err != nil {
		uc.Log.Error("token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetProfile handles GET /auth/profile.
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var user models.User
	err := uc.Collection.FindOne(ctx, bson.M{"email": claims.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		uc.Log.Error("user lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
