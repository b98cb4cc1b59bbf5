package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrDecode marks a payload that does not match the expected schema.
var ErrDecode = errors.New("decode error")

// wireUser mirrors User with pointer fields so that an absent or null key can be
// told apart from a zero value.
type wireUser struct {
	ID         *string    `json:"id" validate:"required"`
	IsActive   *bool      `json:"isActive" validate:"required"`
	Name       *string    `json:"name" validate:"required"`
	Age        *int       `json:"age" validate:"required"`
	Company    *string    `json:"company" validate:"required"`
	Email      *string    `json:"email" validate:"required"`
	Address    *string    `json:"address" validate:"required"`
	About      *string    `json:"about" validate:"required"`
	Registered *time.Time `json:"registered" validate:"required"`
	Tags       *[]*string `json:"tags" validate:"required,dive,required"`
	Friends    *[]*string `json:"friends" validate:"required,dive,required"`
}

type wireEnvelope struct {
	Users *[]wireUser `json:"users" validate:"required,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	return v
}

// DecodeEnvelope parses a payload into a ResponseEnvelope. Any missing, null or
// mistyped field of any element fails the whole payload with an error wrapping
// ErrDecode.
func DecodeEnvelope(data []byte) (ResponseEnvelope, error) {
	if !utf8.Valid(data) {
		return ResponseEnvelope{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrDecode)
	}

	var wire wireEnvelope

	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&wire); err != nil {
		return ResponseEnvelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if decoder.More() {
		return ResponseEnvelope{}, fmt.Errorf("%w: unexpected data after the top-level object", ErrDecode)
	}

	if err := validate.Struct(wire); err != nil {
		return ResponseEnvelope{}, fmt.Errorf("%w: %s", ErrDecode, describeValidationError(err))
	}

	users := make([]User, 0, len(*wire.Users))
	for i, w := range *wire.Users {
		user, err := w.toUser()
		if err != nil {
			return ResponseEnvelope{}, fmt.Errorf("%w: users[%d].id: %v", ErrDecode, i, err)
		}
		users = append(users, user)
	}

	return ResponseEnvelope{Users: users}, nil
}

// EncodeEnvelope produces the wire form accepted by DecodeEnvelope. Nil
// collections are written as empty arrays since null is rejected on decode.
func EncodeEnvelope(envelope ResponseEnvelope) ([]byte, error) {
	users := make([]User, len(envelope.Users))
	for i, u := range envelope.Users {
		if u.Tags == nil {
			u.Tags = []string{}
		}
		if u.Friends == nil {
			u.Friends = []string{}
		}
		users[i] = u
	}

	return json.Marshal(ResponseEnvelope{Users: users})
}

func (w wireUser) toUser() (User, error) {
	id, err := uuid.Parse(*w.ID)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:         id,
		IsActive:   *w.IsActive,
		Name:       *w.Name,
		Age:        *w.Age,
		Company:    *w.Company,
		Email:      *w.Email,
		Address:    *w.Address,
		About:      *w.About,
		Registered: *w.Registered,
		Tags:       derefAll(*w.Tags),
		Friends:    derefAll(*w.Friends),
	}, nil
}

// derefAll expects validated, non-nil elements.
func derefAll(values []*string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = *v
	}
	return out
}

func describeValidationError(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}

	first := fieldErrors[0]
	field := fieldPath(first.Namespace())
	if first.Tag() == "required" {
		return fmt.Sprintf("field %s is missing", field)
	}

	return fmt.Sprintf("field %s failed the %q check", field, first.Tag())
}

// fieldPath drops the leading struct name, e.g. "wireEnvelope.users[1].email"
// becomes "users[1].email".
func fieldPath(namespace string) string {
	if _, path, found := strings.Cut(namespace, "."); found {
		return path
	}
	return namespace
}
