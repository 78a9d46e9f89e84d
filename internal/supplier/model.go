package supplier

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Supplier represents a row in the suppliers table. A supplier may exist
// without any credential record; one is auto-provisioned on first login.
type Supplier struct {
	ID            uuid.UUID
	Email         string
	SupplierName  string
	ContactPerson string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContactNames splits the contact-person field into first and last name,
// used when auto-provisioning a credential for the supplier.
func (s *Supplier) ContactNames() (first, last string) {
	fields := strings.Fields(s.ContactPerson)
	if len(fields) == 0 {
		return s.SupplierName, ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
