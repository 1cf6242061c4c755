package domains

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DomainNotFoundError is returned both when a domain does not exist and when
// the requester is not allowed to see it, so callers cannot probe for the
// existence of private domains.
type DomainNotFoundError struct {
	Name string
}

func (e *DomainNotFoundError) Error() string {
	return fmt.Sprintf("domain not found: %s", e.Name)
}

// NewDomainNotFoundError creates a new DomainNotFoundError
func NewDomainNotFoundError(name string) *DomainNotFoundError {
	return &DomainNotFoundError{Name: name}
}

// Domain represents a tracked site. Accounts are owned by an external
// identity service; only the owner id is referenced here.
type Domain struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Name       string    `gorm:"unique;not null" json:"name"` // always stored without "www.", e.g. "example.com"
	Public     bool      `gorm:"default:false" json:"public"`
	ShareToken *string   `gorm:"uniqueIndex" json:"share_token"` // if set, read-only stats access with the token
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizeName canonicalizes a domain name: lowercase, no leading "www.".
func NormalizeName(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "www.")
}

// GetByName retrieves a domain by its canonical name.
func GetByName(db *gorm.DB, name string) (*Domain, error) {
	var domain Domain
	if err := db.Where("name = ?", NormalizeName(name)).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainNotFoundError(name)
		}
		return nil, fmt.Errorf("unexpected error querying domain: %w", err)
	}
	return &domain, nil
}

// GetAuthorized retrieves a domain iff the requester may read its stats:
// the domain is public, the requester owns it, or the share token matches.
// Everything else fails uniformly as not-found.
func GetAuthorized(db *gorm.DB, name string, requesterID uint, shareToken string) (*Domain, error) {
	domain, err := GetByName(db, name)
	if err != nil {
		return nil, err
	}

	if domain.Public {
		return domain, nil
	}
	if requesterID != 0 && domain.UserID == requesterID {
		return domain, nil
	}
	if shareToken != "" && domain.ShareToken != nil && *domain.ShareToken == shareToken {
		return domain, nil
	}

	return nil, NewDomainNotFoundError(name)
}

// Create persists a new domain with a canonical name.
func Create(db *gorm.DB, domain *Domain) error {
	domain.Name = NormalizeName(domain.Name)
	if domain.Name == "" {
		return fmt.Errorf("domain name is required")
	}
	domain.CreatedAt = time.Now().UTC()
	return db.Create(domain).Error
}

// ListForUser retrieves all domains owned by an account.
func ListForUser(db *gorm.DB, userID uint) ([]Domain, error) {
	var domains []Domain
	if err := db.Where("user_id = ?", userID).Order("name asc").Find(&domains).Error; err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, nil
}

// EnableSharing assigns a fresh share token to the domain and returns it.
func EnableSharing(db *gorm.DB, domain *Domain) (string, error) {
	token := uuid.NewString()
	if err := db.Model(domain).Update("share_token", token).Error; err != nil {
		return "", fmt.Errorf("failed to enable sharing: %w", err)
	}
	domain.ShareToken = &token
	return token, nil
}

// DisableSharing clears the domain's share token.
func DisableSharing(db *gorm.DB, domain *Domain) error {
	if err := db.Model(domain).Update("share_token", nil).Error; err != nil {
		return fmt.Errorf("failed to disable sharing: %w", err)
	}
	domain.ShareToken = nil
	return nil
}

// DomainWithStats is a domain enriched with a recent event count, used by the
// dashboard selector.
type DomainWithStats struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	EventCount int64     `json:"event_count"`
}

// ListForUserWithStats retrieves the requester's domains together with the
// number of events seen in the trailing daysBack days.
func ListForUserWithStats(db *gorm.DB, userID uint, daysBack int) ([]DomainWithStats, error) {
	owned, err := ListForUser(db, userID)
	if err != nil {
		return nil, err
	}

	result := make([]DomainWithStats, len(owned))
	timeLimit := time.Now().UTC().AddDate(0, 0, -daysBack)

	for i, domain := range owned {
		var eventCount int64
		err := db.Table("events").
			Where("domain = ? AND timestamp >= ?", domain.Name, timeLimit).
			Count(&eventCount).Error
		if err != nil {
			eventCount = 0
		}

		result[i] = DomainWithStats{
			ID:         domain.ID,
			Name:       domain.Name,
			CreatedAt:  domain.CreatedAt,
			EventCount: eventCount,
		}
	}

	return result, nil
}
