package api

import (
	"errors"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
	"github.com/Virag-Koradiya/unlisted-stocks/httpx"
)

const (
	msgInvalidBody      = "Invalid request body"
	msgMissingFields    = "Something is missing"
	msgEmailInUse       = "User already exists with this email."
	msgMissingLogin     = "Email and password are required."
	msgBadCredentials   = "Incorrect email or password."
	msgInvalidPhone     = "Phone number must contain only digits"
	msgPasswordTooLong  = "Password must be at most 72 bytes"
	msgStockFields      = "stockName and price are required"
	msgStockPrice       = "price must be a non-negative number"
	msgStockNameEmpty   = "stockName cannot be empty"
	msgStockNoChanges   = "No fields provided to update"
	msgStockNameAdd     = "Stock with this name already exists"
	msgStockNameUpdate  = "Another stock with this name exists"
	msgStockNotFound    = "Stock not found"
	msgAccountCreated   = "Account created successfully."
	msgLoggedOut        = "Logged out successfully."
	msgStockAdded       = "Stock added"
	msgStockUpdated     = "Stock updated"
	msgStockDeleted     = "Stock deleted"
	welcomeBackTemplate = "Welcome back %s"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

type errorTable []errorMapping

var (
	registerErrors = errorTable{
		{auth.ErrMissingFields, httpx.StatusBadRequest, msgMissingFields},
		{auth.ErrInvalidPhoneNumber, httpx.StatusBadRequest, msgInvalidPhone},
		{auth.ErrPasswordEmpty, httpx.StatusBadRequest, msgMissingFields},
		{auth.ErrPasswordTooLong, httpx.StatusBadRequest, msgPasswordTooLong},
		{auth.ErrUserEmailInUse, httpx.StatusConflict, msgEmailInUse},
	}
	loginErrors = errorTable{
		{auth.ErrMissingCredentials, httpx.StatusBadRequest, msgMissingLogin},
		{auth.ErrInvalidCredentials, httpx.StatusBadRequest, msgBadCredentials},
	}
	addStockErrors = errorTable{
		{catalog.ErrStockMissingFields, httpx.StatusBadRequest, msgStockFields},
		{catalog.ErrStockInvalidPrice, httpx.StatusBadRequest, msgStockPrice},
		{catalog.ErrStockNameTaken, httpx.StatusConflict, msgStockNameAdd},
	}
	updateStockErrors = errorTable{
		{catalog.ErrStockNoChanges, httpx.StatusBadRequest, msgStockNoChanges},
		{catalog.ErrStockNameEmpty, httpx.StatusBadRequest, msgStockNameEmpty},
		{catalog.ErrStockInvalidPrice, httpx.StatusBadRequest, msgStockPrice},
		{catalog.ErrStockNameTaken, httpx.StatusConflict, msgStockNameUpdate},
		{catalog.ErrStockNotFound, httpx.StatusNotFound, msgStockNotFound},
	}
	deleteStockErrors = errorTable{
		{catalog.ErrStockNotFound, httpx.StatusNotFound, msgStockNotFound},
	}
)

// translate maps a known domain error to its HTTP error. Anything else is
// returned unchanged and ends up as a logged 500.
func (t errorTable) translate(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range t {
		if errors.Is(err, m.target) {
			return httpx.HTTPErrorWithCause(m.status, m.message, err)
		}
	}
	return err
}

func invalidBody(err error) error {
	return httpx.HTTPErrorWithCause(httpx.StatusBadRequest, msgInvalidBody, err)
}
