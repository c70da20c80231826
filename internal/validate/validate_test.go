package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"simple name", "John", false},
		{"full name", "John Doe", false},
		{"accented name", "José", false},
		{"name with apostrophe", "O'brien", false},
		{"trims surrounding spaces", "  John Doe  ", false},
		{"empty", "", true},
		{"too short", "Jo", true},
		{"not capitalized", "john", true},
		{"second word not capitalized", "John doe", true},
		{"digits are not letters", "John123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Name(tt.value)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_Email(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"plain email", "john@example.com", false},
		{"subdomain", "john@mail.example.com", false},
		{"plus alias", "john+alias@example.com", false},
		{"empty", "", true},
		{"no at sign", "john.example.com", true},
		{"no tld", "john@example", true},
		{"consecutive dots", "john..doe@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.value)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_Password(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"strong password", "Valid1Pass!", false},
		{"empty", "", true},
		{"too short", "V1a!", true},
		{"no upper", "valid1pass!", true},
		{"no lower", "VALID1PASS!", true},
		{"no digit", "ValidPass!", true},
		{"no special", "Valid1Pass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.value)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_SignUpInput(t *testing.T) {
	t.Parallel()

	t.Run("all valid", func(t *testing.T) {
		err := SignUpInput("John Doe", "john@example.com", "Valid1Pass!")
		require.NoError(t, err)
	})

	t.Run("aggregates all field errors", func(t *testing.T) {
		err := SignUpInput("", "not-an-email", "weak")

		require.Error(t, err)

		fieldErrs, ok := err.(FieldErrors)
		require.True(t, ok, "error should be FieldErrors")
		require.Len(t, fieldErrs, 3, "every invalid field should be reported")

		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field)
		}
		require.ElementsMatch(t, []string{"name", "email", "password"}, fields)
	})
}
