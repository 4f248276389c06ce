package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/handlers/render"
	"github.com/nvoronin/taskdeck/internal/handlers/userctx"
	"github.com/nvoronin/taskdeck/internal/logger"
	"github.com/nvoronin/taskdeck/internal/models"
)

// User projection that goes to clients. The password digest has no field
// here at all, so it can not leak through serialization
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func handleSignup(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Name     string `json:"name" validate:"required,min=1,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string       `json:"message"`
		Data    userResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := auth.Register(r.Context(), data.Name, data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("signup failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		l.Info("user registered", "userID", user.ID)
		render.JSONWithStatus(w, response{
			Message: "User created successfully",
			Data:    toUserResponse(user),
		}, http.StatusCreated)
	})
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string       `json:"message"`
		Data    userResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				// Same answer whether the email is unknown or the password is
				// wrong: account existence must not be probeable
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		auth.SetTokenPair(w, pair)
		render.JSON(w, response{
			Message: "User logged in successfully",
			Data:    toUserResponse(user),
		})
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Revoke the refresh token row too, not only the client cookies:
		// a stolen refresh token must lose redemption power on logout
		refresh, err := auth.ReadRefreshToken(r)
		if err == nil {
			if err := auth.Logout(r.Context(), refresh); err != nil {
				l.Error("refresh token revoke failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		auth.ClearTokens(w)
		render.JSON(w, response{Message: "User logged out successfully"})
	})
}

func handleTokenRefresh(auth authService, l logger.Logger) http.Handler {
	type response struct {
		Message     string `json:"message"`
		AccessToken string `json:"accessToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := auth.ReadRefreshToken(r)
		if err != nil {
			render.ServiceError(w, "Unauthorized - no refresh token provided", http.StatusUnauthorized)
			return
		}

		access, err := auth.Refresh(r.Context(), refresh)
		if err != nil {
			l.Info("refresh token rejected", "error", err.Error())
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
				errors.Is(err, apperrors.ErrRefreshTokenInvalid),
				errors.Is(err, apperrors.ErrRefreshTokenExpired):
				render.ServiceError(w, "Unauthorized - invalid refresh token", http.StatusUnauthorized)
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		auth.SetAccessToken(w, access)
		render.JSON(w, response{
			Message:     "Token refreshed successfully",
			AccessToken: access.Value,
		})
	})
}

func handleSessionCheck() http.Handler {
	type response struct {
		Message string    `json:"message"`
		UserID  uuid.UUID `json:"userId"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{
			Message: "Session cookie is valid",
			UserID:  userID,
		})
	})
}
