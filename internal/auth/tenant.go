package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/flowboard/backend/internal/companies"
	"github.com/flowboard/backend/internal/models"
)

var (
	emailRegex  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	domainRegex = regexp.MustCompile(`^[^\s@]+@([^\s@]+\.[^\s@]+)$`)
)

// ErrInvalidEmail reports an email a tenant domain cannot be derived from.
var ErrInvalidEmail = errors.New("invalid email format")

// ValidEmail reports whether the address passes the registration shape check.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ExtractDomain returns the lower-cased domain suffix of an email address.
func ExtractDomain(email string) (string, error) {
	m := domainRegex.FindStringSubmatch(email)
	if m == nil {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(m[1]), nil
}

// CompanyNameForDomain derives a display name from a domain's leading label:
// each hyphen segment is capitalized and " Company" is appended, so
// "acme-widgets.io" becomes "Acme Widgets Company".
func CompanyNameForDomain(domain string) string {
	label := domain
	if i := strings.IndexByte(domain, '.'); i >= 0 {
		label = domain[:i]
	}
	parts := strings.Split(label, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ") + " Company"
}

// EnsureCompany returns the user's company ID, creating a personal company for
// accounts that predate tenancy and still carry a valid token. The user's role
// is preserved.
func EnsureCompany(ctx context.Context, users *Repository, comps *companies.Repository, user *models.User) (uuid.UUID, error) {
	if user.CompanyID != nil {
		return *user.CompanyID, nil
	}
	company := &models.Company{Name: user.Name + "'s Company"}
	if err := comps.Create(ctx, company); err != nil {
		return uuid.Nil, err
	}
	if err := users.AttachCompany(ctx, user.ID, company.ID, user.Role); err != nil {
		return uuid.Nil, err
	}
	user.CompanyID = &company.ID
	return company.ID, nil
}

// ResolveCompany finds the company for a domain, creating it with a derived
// display name when absent. A concurrent create of the same domain loses the
// unique-constraint race and re-reads the winner's row.
func ResolveCompany(ctx context.Context, repo *companies.Repository, domain string) (*models.Company, error) {
	company, err := repo.GetByDomain(ctx, domain)
	if err == nil {
		return company, nil
	}
	company = &models.Company{Name: CompanyNameForDomain(domain), Domain: domain}
	if createErr := repo.Create(ctx, company); createErr != nil {
		if existing, getErr := repo.GetByDomain(ctx, domain); getErr == nil {
			return existing, nil
		}
		return nil, createErr
	}
	return company, nil
}
