package google

import (
	"context"
	"errors"
	"testing"

	"github.com/huntier-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestVerify(t *testing.T) {
	v := NewVerifier("client-1")
	v.validate = func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
		assert.Equal(t, "client-1", aud)
		if token != "good" {
			return nil, errors.New("bad signature")
		}
		return &idtoken.Payload{Subject: "sub-1", Claims: map[string]interface{}{
			"email":          "ada@example.com",
			"email_verified": true,
			"given_name":     "Ada",
			"family_name":    "Lovelace",
			"locale":         "zh-CN",
		}}, nil
	}

	p, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", p.Sub)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, "zh-CN", p.Locale)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_NotConfigured(t *testing.T) {
	_, err := NewVerifier("").Verify(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
