// Package fixtures holds the sample user model shared by tests and examples.
package fixtures

import (
	"context"
	"fmt"
	"math"
	"slices"

	transient "github.com/goliatone/go-transient"
	"github.com/goliatone/go-transient/pkg/schema"
)

// Roles accepted by the description field.
var Roles = []any{"admin", "moderator", "user"}

// PasswordMismatch is the validation message recorded on password.
const PasswordMismatch = "Password and Confirmation Password do not match"

// UserFields returns the user field declarations before the plugin runs.
func UserFields() []schema.Field {
	return []schema.Field{
		{Path: "name", Type: schema.String},
		{Path: "password", Type: schema.String},
		{Path: "role", Type: schema.String},
		{Path: "confirmationPassword", Type: schema.String, Options: transient.Declare(true)},
		{Path: "addOne", Type: schema.Number, Options: transient.Declare(transient.Options{
			Get: addOne,
		})},
		{Path: "isBrilliant", Type: schema.Boolean, Default: false, Options: transient.Declare("isKindaSmrt")},
		{Path: "another", Type: schema.String, Options: transient.Declare(func(value any) any {
			return fmt.Sprintf("modified: %v", value)
		})},
		{Path: "description", Type: schema.String, Options: transient.Declare(transient.Options{
			As:     "roleDescription",
			Args:   Roles,
			Set:    roleOrInvalid,
			Get:    describeRole,
			LinkTo: []string{"role"},
		})},
	}
}

// NewUserSchema builds the user schema with the transient plugin applied and
// the password confirmation hook registered.
func NewUserSchema(opts ...transient.Option) (*schema.Schema, error) {
	s, err := schema.New(UserFields()...)
	if err != nil {
		return nil, err
	}
	if err := s.Plugin(transient.Plugin(opts...)); err != nil {
		return nil, err
	}
	s.Pre(schema.HookValidate, CheckPasswords)
	return s, nil
}

// CheckPasswords invalidates password when it differs from
// confirmationPassword on new documents or after a password change.
func CheckPasswords(_ context.Context, doc *schema.Document) error {
	if !doc.IsNew() && !doc.IsModified("password") {
		return nil
	}
	password, err := doc.Get("password")
	if err != nil {
		return err
	}
	confirmation, err := doc.Get("confirmationPassword")
	if err != nil {
		return err
	}
	if password != confirmation {
		doc.Invalidate("password", PasswordMismatch)
	}
	return nil
}

func addOne(value any, _ ...any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v + 1, nil
	case int:
		return float64(v) + 1, nil
	default:
		return math.NaN(), nil
	}
}

func roleOrInvalid(value any, roles ...any) (any, error) {
	if slices.Contains(roles, value) {
		return value, nil
	}
	return "invalid", nil
}

func describeRole(value any, _ ...any) (any, error) {
	return fmt.Sprintf("The user role is %v", value), nil
}
