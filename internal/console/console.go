// Package console is the interactive client: both stores run in-process,
// the session survives restarts through its persister and listings start
// from the seed set every time.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin/binding"

	"foodshare/internal/access"
	"foodshare/internal/domain"
	"foodshare/internal/listing"
	"foodshare/internal/session"
)

type Console struct {
	Out      io.Writer
	Session  *session.Store
	Listings *listing.Store
}

// gate 页面权限不满足时返回带跳转目标的错误
func (c *Console) gate(v access.View) (domain.User, error) {
	var u *domain.User
	if cur, ok := c.Session.Current(); ok {
		u = &cur
	}
	if err := access.Check(u, v); err != nil {
		return domain.User{}, &DeniedError{View: v, Err: err}
	}
	return *u, nil
}

func (c *Console) requireLogin() (domain.User, error) {
	u, err := c.Session.Require()
	if err != nil {
		return domain.User{}, &DeniedError{Err: err}
	}
	return u, nil
}

// DeniedError 对应页面跳转
type DeniedError struct {
	View access.View
	Err  error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%v (redirect %s)", e.Err, access.Redirect(e.Err))
}

func (e *DeniedError) Unwrap() error { return e.Err }

func (c *Console) Login(ctx context.Context, email, password string) error {
	if err := session.RequireEmail(email); err != nil {
		return err
	}
	u, err := c.Session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	c.printf("logged in as %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

func (c *Console) Register(ctx context.Context, name, email, password, confirm, role string) error {
	if err := session.RequireEmail(email); err != nil {
		return err
	}
	if err := session.CheckConfirmation(password, confirm); err != nil {
		return err
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return err
	}
	u, err := c.Session.Register(ctx, name, email, password, r)
	if err != nil {
		return err
	}
	c.printf("registered %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

func (c *Console) Logout(ctx context.Context) error {
	if err := c.Session.Logout(ctx); err != nil {
		return err
	}
	c.printf("logged out\n")
	return nil
}

func (c *Console) WhoAmI() error {
	u, ok := c.Session.Current()
	if !ok {
		c.printf("not logged in\n")
		return nil
	}
	c.printf("%s <%s>\nrole: %s\nid:   %s\n", u.Name, u.Email, u.Role, u.ID)
	return nil
}

func (c *Console) Views() error {
	var u *domain.User
	if cur, ok := c.Session.Current(); ok {
		u = &cur
	}
	for _, v := range access.Visible(u) {
		c.printf("%s\n", v)
	}
	return nil
}

// CheckView 说明页面的访问规则以及当前身份能否打开
func (c *Console) CheckView(name string) error {
	v, err := access.ParseView(name)
	if err != nil {
		return err
	}
	if v.Public() {
		c.printf("%s: public\n", v)
	} else {
		roles := make([]string, len(v.Roles()))
		for i, r := range v.Roles() {
			roles[i] = string(r)
		}
		c.printf("%s: %s\n", v, strings.Join(roles, ", "))
	}
	var u *domain.User
	if cur, ok := c.Session.Current(); ok {
		u = &cur
	}
	if err := access.Check(u, v); err != nil {
		c.printf("  denied (redirect %s)\n", access.Redirect(err))
		return nil
	}
	c.printf("  allowed\n")
	return nil
}

func (c *Console) Browse(ctx context.Context, q listing.Query) error {
	if _, err := c.gate(access.Browse); err != nil {
		return err
	}
	items, err := c.Listings.Browse(ctx, q)
	if err != nil {
		return err
	}
	return c.table(items)
}

func (c *Console) Show(ctx context.Context, id string) error {
	if _, err := c.requireLogin(); err != nil {
		return err
	}
	f, err := c.Listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	now := c.Listings.Now()
	c.printf("%s  %s\n", f.ID, f.Name)
	c.printf("  %s\n", f.Description)
	c.printf("  quantity: %g %s\n", f.Quantity, f.Unit)
	c.printf("  type:     %s, %s%s\n", f.Type, f.DonationType, price(f.Price))
	c.printf("  status:   %s\n", f.EffectiveStatus(now))
	c.printf("  expires:  %s%s\n", f.ExpiryDate.Format(time.RFC3339), soonMark(*f, now))
	c.printf("  pickup:   %s\n", f.PickupAddress)
	if f.DeliveryAddress != nil {
		c.printf("  deliver:  %s\n", f.DeliveryAddress)
	}
	return nil
}

func (c *Console) Claim(ctx context.Context, id string, deliverTo *domain.Address) error {
	u, err := c.gate(access.Claim)
	if err != nil {
		return err
	}
	f, err := c.Listings.Claim(ctx, id, u.ID, deliverTo)
	if err != nil {
		return err
	}
	c.printf("claimed %s (%s)\n", f.ID, f.Name)
	return nil
}

func (c *Console) Claims(ctx context.Context) error {
	u, err := c.gate(access.Claim)
	if err != nil {
		return err
	}
	items, err := c.Listings.ByRecipient(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.table(items)
}

func (c *Console) Donate(ctx context.Context, in domain.NewFoodItem) error {
	u, err := c.gate(access.Donate)
	if err != nil {
		return err
	}
	in.DonorID = u.ID
	if err := binding.Validator.ValidateStruct(&in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	f, err := c.Listings.Add(ctx, in)
	if err != nil {
		return err
	}
	c.printf("listed %s (%s)\n", f.ID, f.Name)
	return nil
}

func (c *Console) Donations(ctx context.Context) error {
	u, err := c.gate(access.MyDonations)
	if err != nil {
		return err
	}
	items, err := c.Listings.ByDonor(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.table(items)
}

func (c *Console) Withdraw(ctx context.Context, id string) error {
	u, err := c.gate(access.MyDonations)
	if err != nil {
		return err
	}
	f, err := c.Listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	if f.DonorID != u.ID {
		return fmt.Errorf("%w: listing %s belongs to another donor", domain.ErrForbidden, id)
	}
	if err := c.Listings.Delete(ctx, id); err != nil {
		return err
	}
	c.printf("withdrew %s\n", id)
	return nil
}

func (c *Console) Deliveries(ctx context.Context, mine bool) error {
	u, err := c.gate(access.Deliveries)
	if err != nil {
		return err
	}
	var items []domain.FoodItem
	if mine {
		items, err = c.Listings.ByVolunteer(ctx, u.ID)
	} else {
		items, err = c.Listings.PendingDeliveries(ctx)
	}
	if err != nil {
		return err
	}
	return c.table(items)
}

func (c *Console) Accept(ctx context.Context, id string) error {
	u, err := c.gate(access.Deliveries)
	if err != nil {
		return err
	}
	f, err := c.Listings.AcceptDelivery(ctx, id, u.ID)
	if err != nil {
		return err
	}
	c.printf("accepted %s, deliver to %s\n", f.ID, f.DeliveryAddress)
	return nil
}

func (c *Console) Complete(ctx context.Context, id string) error {
	u, err := c.gate(access.Deliveries)
	if err != nil {
		return err
	}
	f, err := c.Listings.CompleteDelivery(ctx, id, u.ID)
	if err != nil {
		return err
	}
	c.printf("delivered %s\n", f.ID)
	return nil
}

func (c *Console) table(items []domain.FoodItem) error {
	if len(items) == 0 {
		c.printf("no listings\n")
		return nil
	}
	now := c.Listings.Now()
	w := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tQTY\tSTATUS\tEXPIRES")
	for _, f := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g %s\t%s\t%s%s\n",
			f.ID, f.Name, f.Type, f.Quantity, f.Unit, f.EffectiveStatus(now), f.ExpiryDate.Format("2006-01-02 15:04"), soonMark(f, now))
	}
	return w.Flush()
}

func soonMark(f domain.FoodItem, now time.Time) string {
	if f.ExpiringSoon(now) {
		return " (expiring soon)"
	}
	return ""
}

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.Out, format, args...) }

func price(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf(" (%.2f)", *p)
}

// Describe 把错误转成给用户看的一行
func Describe(err error) string {
	var denied *DeniedError
	switch {
	case errors.As(err, &denied):
		if errors.Is(err, domain.ErrUnauthenticated) {
			return "please log in first"
		}
		return "that page is not available for your role"
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrEmailTaken):
		return err.Error()
	}
	return "something went wrong: " + strings.TrimSpace(err.Error())
}
