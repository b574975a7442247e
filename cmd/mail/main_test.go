package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMailRejectsBadMessages(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type": `},
		{"unknown type", `{"type": "reset_password", "to": "a@example.com", "data": {}}`},
		{"bad data", `{"type": "create_user", "to": "a@example.com", "data": "oops"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := buildMail("noreply@example.com", []byte(tc.body))

			assert.Error(t, err)
			assert.Nil(t, m)
		})
	}
}

func TestMailKindsDecodeTypedData(t *testing.T) {
	for name, kind := range mailKinds {
		assert.NotNil(t, kind.data(), name)
		assert.NotEmpty(t, kind.subject, name)
	}
}
