package handlers

import (
	"errors"
	"net/http"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/handlers/render"
	"github.com/nvoronin/taskdeck/internal/handlers/userctx"
	"github.com/nvoronin/taskdeck/internal/logger"
)

func handleGetProfile(auth authService, l logger.Logger) http.Handler {
	type response struct {
		Message string       `json:"message"`
		Data    userResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		user, err := auth.GetProfile(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("get profile failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			Message: "Profile fetched successfully",
			Data:    toUserResponse(user),
		})
	})
}

func handleEditProfile(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Name  string `json:"name" validate:"required,min=1,max=100"`
		Email string `json:"email" validate:"required,email"`
	}
	type response struct {
		Message string       `json:"message"`
		Data    userResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := auth.EditProfile(r.Context(), userID, data.Name, data.Email)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "Email is already taken", http.StatusConflict)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("edit profile failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			Message: "Profile updated successfully",
			Data:    toUserResponse(user),
		})
	})
}

func handleChangePassword(auth authService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"currentPassword" validate:"required,min=8"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = auth.ChangePassword(r.Context(), userID, data.CurrentPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid current password", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("change password failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}
