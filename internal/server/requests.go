package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// TokenRequest is the body of /refresh and /room/create.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// JoinRequest is the body of /room/join.
type JoinRequest struct {
	Token    string `json:"token" validate:"required"`
	RoomCode string `json:"room_code" validate:"required"`
}

// SessionQuery is the query of /session.
type SessionQuery struct {
	S string `json:"s" validate:"required"`
}

// TokenQuery is the query of /me.
type TokenQuery struct {
	Token string `json:"token" validate:"required"`
}

// CodeQuery is the query of /room/check.
type CodeQuery struct {
	Code string `json:"code" validate:"required"`
}

// CallbackQuery is the query the provider redirects back with.
type CallbackQuery struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

// TokenResponse carries a freshly minted credential.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse is the identity embedded in a credential.
type MeResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// RoomCreatedResponse is returned by /room/create.
type RoomCreatedResponse struct {
	RoomCode         string `json:"room_code"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// RoomCheckResponse is returned by /room/check.
type RoomCheckResponse struct {
	Valid bool   `json:"valid"`
	Host  string `json:"host"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// validateStruct checks v and reports every missing field by its JSON name.
//
// Whitespace-only strings count as missing.
func validateStruct(v any) error {
	trimStrings(v)

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	structType := reflect.TypeOf(v).Elem()
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fe.StructField()
		if field, ok := structType.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(field.Tag.Get("json"), ",")[0]; tag != "" {
				name = tag
			}
		}
		names = append(names, name)
	}

	verb := "is"
	if len(names) > 1 {
		verb = "are"
	}
	return fmt.Errorf("%w: %s %s required", shared.ErrValidation, strings.Join(names, " and "), verb)
}

// trimStrings trims the string fields of the struct v points to.
func trimStrings(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := range rv.NumField() {
		if f := rv.Field(i); f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body must be a JSON object", shared.ErrValidation)
	}
	return validateStruct(dst)
}

// decodeQuery copies query parameters into the string fields of dst by JSON name and validates it.
func decodeQuery(r *http.Request, dst any) error {
	q := r.URL.Query()
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		name := strings.Split(rt.Field(i).Tag.Get("json"), ",")[0]
		if name == "" || rv.Field(i).Kind() != reflect.String {
			continue
		}
		rv.Field(i).SetString(q.Get(name))
	}
	return validateStruct(dst)
}
