package credentials

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

type apiKeyData struct {
	KeyName  string `mapstructure:"key_name" validate:"required"`
	KeyValue string `mapstructure:"key_value" validate:"required"`
}

type bearerData struct {
	Token string `mapstructure:"token" validate:"required"`
}

type basicAuthData struct {
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

type oauth2Data struct {
	AccessToken  string `mapstructure:"access_token" validate:"required"`
	RefreshToken string `mapstructure:"refresh_token"`
	TokenURL     string `mapstructure:"token_url" validate:"omitempty,url"`
}

type headerData struct {
	Headers map[string]string `mapstructure:"headers" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func dataShape(t domain.CredentialType) (any, error) {
	switch t {
	case domain.CredentialAPIKey:
		return &apiKeyData{}, nil
	case domain.CredentialBearer:
		return &bearerData{}, nil
	case domain.CredentialBasicAuth:
		return &basicAuthData{}, nil
	case domain.CredentialOAuth2:
		return &oauth2Data{}, nil
	case domain.CredentialHeader:
		return &headerData{}, nil
	default:
		return nil, &domain.ValidationError{Field: "type", Reason: "unsupported credential type", Value: string(t)}
	}
}

// RequiredFields lists the data fields that must be present for a credential type.
func RequiredFields(t domain.CredentialType) []string {
	switch t {
	case domain.CredentialAPIKey:
		return []string{"key_name", "key_value"}
	case domain.CredentialBearer:
		return []string{"token"}
	case domain.CredentialBasicAuth:
		return []string{"username", "password"}
	case domain.CredentialOAuth2:
		return []string{"access_token"}
	case domain.CredentialHeader:
		return []string{"headers"}
	}
	return nil
}

// Validate checks a create request locally, before any network call.
// It returns a *domain.ValidationError naming the first offending field.
func Validate(req domain.CreateCredentialRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return domain.NewValidationError("name", "name is required")
	}

	shape, err := dataShape(req.Type)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           shape,
		WeaklyTypedInput: true,
		DecodeHook:       trimStrings,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(req.Data); err != nil {
		return &domain.ValidationError{Field: "data", Reason: err.Error()}
	}

	if err := validate.Struct(shape); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toValidationError(req.Type, fieldErrs[0])
		}
		return &domain.ValidationError{Field: "data", Reason: err.Error()}
	}
	return nil
}

func toValidationError(t domain.CredentialType, fe validator.FieldError) *domain.ValidationError {
	field := fe.Field()
	var reason string
	switch {
	case field == "headers" && (fe.Tag() == "required" || fe.Tag() == "min"):
		reason = "at least one header is required"
	case fe.Tag() == "required":
		reason = fmt.Sprintf("%s is required for %s credentials", field, t)
	case fe.Tag() == "url":
		reason = fmt.Sprintf("%s must be a valid URL", field)
	default:
		reason = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
	return &domain.ValidationError{Field: field, Reason: reason, Value: fe.Value()}
}

// trimStrings treats whitespace-only values as missing.
func trimStrings(from, to reflect.Type, data any) (any, error) {
	if s, ok := data.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return data, nil
}
