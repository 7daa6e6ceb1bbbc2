package api

import (
	"errors"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"strconv"
	"time"
)

const unauthorizedMessage = "The consumer isn't authorized to access the resource."

var errUnauthorized = errors.New("unauthorized")

// CustomerClaims identifies the registered customer behind a request.
type CustomerClaims struct {
	CustomerID int64  `json:"customer_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs a customer token valid for ttl.
func IssueToken(secret string, customerID int64, email string, ttl time.Duration) (string, error) {
	claims := &CustomerClaims{
		CustomerID: customerID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(customerID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tkn.SignedString([]byte(secret))
}

// JWT validates bearer tokens and stores *CustomerClaims in the context.
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(CustomerClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(401, map[string]string{"error": unauthorizedMessage})
		},
	})
}

func customerFrom(c echo.Context) (*CustomerClaims, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, errUnauthorized
	}
	claims, ok := token.Claims.(*CustomerClaims)
	if !ok || claims.CustomerID == 0 {
		return nil, errUnauthorized
	}
	return claims, nil
}
