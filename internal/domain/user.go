package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

var roles = []Role{RoleDonor, RoleRecipient, RoleVolunteer, RoleAdmin}

func (r Role) Valid() bool {
	for _, x := range roles {
		if r == x {
			return true
		}
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

// Address 值类型，按值嵌入 User / FoodItem
type Address struct {
	Street    string   `json:"street"    binding:"required"`
	City      string   `json:"city"      binding:"required"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zipCode"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.ZipCode)
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credentials 仅用于 PasswordProvider，口令哈希不出 repo 层以外的 JSON
type Credentials struct {
	User         User
	PasswordHash string
}
