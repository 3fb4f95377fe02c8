package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain"
)

func user(r domain.Role) *domain.User { return &domain.User{ID: "u", Role: r} }

func TestCheck(t *testing.T) {
	cases := []struct {
		name string
		u    *domain.User
		view View
		want error
	}{
		{"anonymous home", nil, Home, nil},
		{"anonymous register", nil, Register, nil},
		{"anonymous donate", nil, Donate, domain.ErrUnauthenticated},
		{"anonymous browse", nil, Browse, domain.ErrUnauthenticated},
		{"donor donate", user(domain.RoleDonor), Donate, nil},
		{"donor browse", user(domain.RoleDonor), Browse, domain.ErrForbidden},
		{"recipient claim", user(domain.RoleRecipient), Claim, nil},
		{"recipient deliveries", user(domain.RoleRecipient), Deliveries, domain.ErrForbidden},
		{"volunteer deliveries", user(domain.RoleVolunteer), Deliveries, nil},
		{"admin donate", user(domain.RoleAdmin), Donate, domain.ErrForbidden},
		{"admin admin", user(domain.RoleAdmin), Admin, nil},
		{"unknown view", nil, View("nope"), domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.u, tc.view)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRedirect(t *testing.T) {
	assert.Equal(t, LoginPath, Redirect(Check(nil, MyDonations)))
	assert.Equal(t, HomePath, Redirect(Check(user(domain.RoleVolunteer), MyDonations)))
	assert.Equal(t, "", Redirect(nil))
}

func TestVisible(t *testing.T) {
	assert.Equal(t, []View{Home, About, Login, Register}, Visible(nil))
	assert.Equal(t, []View{Home, About, Login, Register, Browse, Claim}, Visible(user(domain.RoleRecipient)))
}

func TestParseView(t *testing.T) {
	v, err := ParseView("my-donations")
	require.NoError(t, err)
	assert.Equal(t, MyDonations, v)
	assert.False(t, v.Public())
	assert.Equal(t, []domain.Role{domain.RoleDonor}, v.Roles())

	_, err = ParseView("settings")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
