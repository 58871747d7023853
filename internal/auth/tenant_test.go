package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jordan@acme.com"))
	assert.True(t, ValidEmail("jordan+dev@acme.co.uk"))
	assert.False(t, ValidEmail("jordan"))
	assert.False(t, ValidEmail("jordan@acme"))
	assert.False(t, ValidEmail("jordan acme@x.com"))
	assert.False(t, ValidEmail(""))
}

func TestExtractDomain(t *testing.T) {
	domain, err := ExtractDomain("Jordan@Acme.COM")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", domain)

	domain, err = ExtractDomain("sam@acme-widgets.io")
	require.NoError(t, err)
	assert.Equal(t, "acme-widgets.io", domain)

	_, err = ExtractDomain("not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = ExtractDomain("jordan@localhost")
	assert.ErrorIs(t, err, ErrInvalidEmail, "domain needs a dot")
}

func TestCompanyNameForDomain(t *testing.T) {
	assert.Equal(t, "Acme Company", CompanyNameForDomain("acme.com"))
	assert.Equal(t, "Acme Widgets Company", CompanyNameForDomain("acme-widgets.io"))
	assert.Equal(t, "Acme Company", CompanyNameForDomain("acme.co.uk"))
	assert.Equal(t, "Ölçü Company", CompanyNameForDomain("ölçü.com"), "first rune, not first byte")
}
