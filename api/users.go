package api

import (
	"fmt"
	"strings"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/httpx"
)

type registerRequest struct {
	FullName    string      `json:"fullname"`
	Email       string      `json:"email"`
	PhoneNumber digitString `json:"phoneNumber"`
	Password    string      `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    auth.PublicUser `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handlers) register(c httpx.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	user, err := h.users.Register(c.Request().Context(), auth.RegisterInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: string(req.PhoneNumber),
		Password:    req.Password,
	})
	if err != nil {
		return registerErrors.translate(err)
	}
	return c.JSON(httpx.StatusCreated, userResponse{
		Success: true,
		Message: msgAccountCreated,
		User:    user.Public(),
	})
}

func (h *Handlers) login(c httpx.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	session, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return loginErrors.translate(err)
	}
	c.SetCookie(session.Cookie)
	return c.JSON(httpx.StatusOK, userResponse{
		Success: true,
		Message: strings.TrimSpace(fmt.Sprintf(welcomeBackTemplate, session.User.FullName)),
		User:    session.User.Public(),
	})
}

// logout needs no session and always succeeds.
func (h *Handlers) logout(c httpx.Context) error {
	c.SetCookie(h.users.Logout())
	return c.JSON(httpx.StatusOK, messageResponse{Success: true, Message: msgLoggedOut})
}
