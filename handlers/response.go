package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	config "github.com/TimmyIsANerd/chamswap/configs"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	log      = config.InitLogger()
	validate = newValidator()
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const dateLayout = "2006-01-02"

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": message})
}

// parseRequest decodes the body into req and runs its validate tags. The
// returned error text is safe to show to the client.
func parseRequest(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errors.New("Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return errorJSON(c, fiber.StatusBadRequest, err.Error())
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrSelfReferral):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrEmailNotVerified):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrDuplicateTransaction),
		errors.Is(err, services.ErrAlreadyReferred),
		errors.Is(err, services.ErrMutualReferral),
		errors.Is(err, services.ErrAlreadyExists):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrTimeout):
		return errorJSON(c, fiber.StatusGatewayTimeout, "Request timed out, please retry")
	}

	log.WithError(err).WithFields(map[string]any{
		"path":   c.Path(),
		"method": c.Method(),
	}).Error("Unhandled service error")
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A date-only end bound covers the whole day.
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC3339", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func dateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	start, err := parseDate(c.Query("startDate"), false)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseDate(c.Query("endDate"), true)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
