package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
)

// CreateMemberInput is the POST /api/members request body.
type CreateMemberInput struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name"`
	GitHubLogin string `json:"githubLogin"`
	Bio         string `json:"bio"`
}

// RegisterProjectInput is the POST /api/projects request body — the fields
// the frontend copies over from the selected GitHub repository, plus the
// chosen visibility tier.
type RegisterProjectInput struct {
	GitHubID    int64            `json:"githubId" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	FullName    string           `json:"fullName" validate:"required"`
	Description string           `json:"description"`
	HTMLURL     string           `json:"htmlUrl" validate:"required"`
	Homepage    string           `json:"homepage"`
	Language    string           `json:"language"`
	Topics      []string         `json:"topics"`
	Stars       int              `json:"stars" validate:"min=0"`
	Forks       int              `json:"forks" validate:"min=0"`
	Watchers    int              `json:"watchers" validate:"min=0"`
	Visibility  model.Visibility `json:"visibility" validate:"omitempty,oneof=PUBLIC INTERNAL PRIVATE"`
	Category    string           `json:"category"`
	Tags        []string         `json:"tags"`
}

// UpdateProjectInput is the PATCH /api/projects/{id} request body. Only
// visibility, featured, category, and tags are mutable; everything else is
// a mirror of GitHub and stays frozen at registration time.
//
// Pointer fields distinguish "absent" (leave unchanged) from a provided
// value. Category additionally accepts an explicit null to clear it, which
// plain *string can't express — hence OptionalString.
type UpdateProjectInput struct {
	Visibility *model.Visibility `json:"visibility" validate:"omitempty,oneof=PUBLIC INTERNAL PRIVATE"`
	Featured   *bool             `json:"featured"`
	Category   OptionalString    `json:"category"`
	Tags       []string          `json:"tags"` // nil = unchanged, [] = clear
}

// OptionalString is a JSON field with three states: absent (Set=false),
// explicit null (Set=true, Value=nil), and a string value.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the key is present in the body, which
// is exactly what distinguishes Set from absent.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// validate is the shared validator instance. Field names in error output
// come from the json tag so callers see the names they actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkInput runs schema validation and converts the result into a single
// apperror carrying EVERY failing field — a client fixing a form gets the
// complete list in one round trip.
func checkInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError — a nil or non-struct input, which is a
		// programming error, not a client error.
		return fmt.Errorf("service: validating input: %w", err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperror.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
