package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripeEnabled(t *testing.T) {
	tests := []struct {
		name          string
		secretKey     string
		webhookSecret string
		want          bool
	}{
		{"unconfigured", "", "", false},
		{"key only", "sk_test_123", "", false},
		{"webhook secret only", "", "whsec_123", false},
		{"both", "sk_test_123", "whsec_123", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STRIPE_SECRET_KEY", tt.secretKey)
			t.Setenv("STRIPE_WEBHOOK_SECRET", tt.webhookSecret)
			assert.Equal(t, tt.want, FromEnv().StripeEnabled())
		})
	}
}
