package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"foodshare/internal/domain"
	"foodshare/internal/listing"
)

// Execute 执行命令树并返回进程退出码；失败写 error 日志并给用户一行提示
func Execute(ctx context.Context, root *cobra.Command, log *zap.Logger, errOut io.Writer) int {
	if err := root.ExecuteContext(ctx); err != nil {
		return Fail(log, errOut, "command failed", err)
	}
	return 0
}

// Fail 记录错误并打印给用户，返回退出码 1
func Fail(log *zap.Logger, errOut io.Writer, msg string, err error) int {
	if log != nil {
		log.Error(msg, zap.Error(err))
	}
	fmt.Fprintf(errOut, "\033[31mError:\033[0m %s\n", Describe(err))
	return 1
}

// NewCommand 构造完整命令树；shell 每行都会重新构造，flag 不会串值
func NewCommand(c *Console) *cobra.Command {
	root := &cobra.Command{
		Use:           "foodshare",
		Short:         "Share surplus food between donors, recipients and volunteers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		loginCmd(c),
		registerCmd(c),
		logoutCmd(c),
		whoamiCmd(c),
		viewsCmd(c),
		browseCmd(c),
		showCmd(c),
		claimCmd(c),
		claimsCmd(c),
		donateCmd(c),
		donationsCmd(c),
		withdrawCmd(c),
		deliveriesCmd(c),
		acceptCmd(c),
		completeCmd(c),
		shellCmd(c),
	)
	return root
}

func loginCmd(c *Console) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Login(cmd.Context(), email, password)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(c *Console) *cobra.Command {
	var name, email, password, confirm, role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Register(cmd.Context(), name, email, password, confirm, role)
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVarP(&email, "email", "e", "", "account email")
	f.StringVarP(&password, "password", "p", "", "password")
	f.StringVar(&confirm, "confirm", "", "password confirmation")
	f.StringVarP(&role, "role", "r", "", "donor | recipient | volunteer | admin")
	for _, n := range []string{"name", "email", "role"} {
		_ = cmd.MarkFlagRequired(n)
	}
	return cmd
}

func logoutCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current identity",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Logout(cmd.Context()) },
	}
}

func whoamiCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return c.WhoAmI() },
	}
}

func viewsCmd(c *Console) *cobra.Command {
	var check string
	cmd := &cobra.Command{
		Use:   "views",
		Short: "List the pages available to the current identity",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if check != "" {
				return c.CheckView(check)
			}
			return c.Views()
		},
	}
	cmd.Flags().StringVar(&check, "check", "", "explain who may open the named page")
	return cmd
}

func typeHelp(prefix string) string {
	types := domain.FoodTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return prefix + ": " + strings.Join(names, " | ")
}

func browseCmd(c *Console) *cobra.Command {
	var typ, search, sortBy, order string
	var includeExpired bool
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse available listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Browse(cmd.Context(), listing.Query{
				Type:           domain.FoodType(typ),
				Search:         search,
				SortBy:         listing.SortKey(sortBy),
				Order:          listing.Order(order),
				IncludeExpired: includeExpired,
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", "", typeHelp("category filter"))
	f.StringVarP(&search, "query", "q", "", "search name and description")
	f.StringVar(&sortBy, "sort", string(listing.SortByExpiry), "expiryDate | name")
	f.StringVar(&order, "order", string(listing.Asc), "asc | desc")
	f.BoolVar(&includeExpired, "include-expired", false, "also show expired listings")
	return cmd
}

func showCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Show(cmd.Context(), args[0]) },
	}
}

type addressFlags struct {
	street, city, state, zip, country string
}

func (a *addressFlags) bind(cmd *cobra.Command, prefix string) {
	f := cmd.Flags()
	f.StringVar(&a.street, prefix+"street", "", "street")
	f.StringVar(&a.city, prefix+"city", "", "city")
	f.StringVar(&a.state, prefix+"state", "", "state")
	f.StringVar(&a.zip, prefix+"zip", "", "zip code")
	f.StringVar(&a.country, prefix+"country", "", "country")
}

func (a *addressFlags) address() *domain.Address {
	if a.street == "" && a.city == "" {
		return nil
	}
	return &domain.Address{Street: a.street, City: a.city, State: a.state, ZipCode: a.zip, Country: a.country}
}

func claimCmd(c *Console) *cobra.Command {
	var deliver addressFlags
	cmd := &cobra.Command{
		Use:   "claim ID",
		Short: "Claim a listing, optionally asking for delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := deliver.address()
			if addr != nil && (addr.Street == "" || addr.City == "") {
				return fmt.Errorf("%w: delivery needs street and city", domain.ErrValidation)
			}
			return c.Claim(cmd.Context(), args[0], addr)
		},
	}
	deliver.bind(cmd, "deliver-")
	return cmd
}

func claimsCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "claims",
		Short: "List my claims",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Claims(cmd.Context()) },
	}
}

func donateCmd(c *Console) *cobra.Command {
	var (
		in      domain.NewFoodItem
		typ     string
		kind    string
		expires string
		price   float64
		pickup  addressFlags
	)
	cmd := &cobra.Command{
		Use:   "donate",
		Short: "List food for donation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exp, err := parseExpiry(expires, c.Listings.Now())
			if err != nil {
				return err
			}
			in.ExpiryDate = exp
			in.Type = domain.FoodType(typ)
			in.DonationType = domain.DonationType(kind)
			if cmd.Flags().Changed("price") {
				in.Price = &price
			}
			if a := pickup.address(); a != nil {
				in.PickupAddress = *a
			}
			return c.Donate(cmd.Context(), in)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "what is offered")
	f.StringVar(&in.Description, "desc", "", "description")
	f.Float64Var(&in.Quantity, "qty", 0, "quantity")
	f.StringVar(&in.Unit, "unit", "", "unit, e.g. kg or portions")
	f.StringVar(&expires, "expires", "24h", "RFC3339 time or a duration from now")
	f.StringVarP(&typ, "type", "t", string(domain.FoodOther), typeHelp("category"))
	f.StringVar(&kind, "donation", string(domain.DonationFree), "free | discounted")
	f.Float64Var(&price, "price", 0, "price for discounted donations")
	f.StringSliceVar(&in.Photos, "photo", nil, "photo reference, repeatable")
	pickup.bind(cmd, "pickup-")
	return cmd
}

func parseExpiry(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expires %q is neither RFC3339 nor a duration", domain.ErrValidation, s)
	}
	return now.Add(d), nil
}

func donationsCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "donations",
		Short: "List my donations",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Donations(cmd.Context()) },
	}
}

func withdrawCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw ID",
		Short: "Remove one of my donations",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Withdraw(cmd.Context(), args[0]) },
	}
}

func deliveriesCmd(c *Console) *cobra.Command {
	var mine bool
	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "List claims waiting for a courier, or my accepted ones",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return c.Deliveries(cmd.Context(), mine) },
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only deliveries I accepted")
	return cmd
}

func acceptCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "accept ID",
		Short: "Accept a delivery",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Accept(cmd.Context(), args[0]) },
	}
}

func completeCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Mark an accepted delivery as delivered",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Complete(cmd.Context(), args[0]) },
	}
}

func shellCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against the same in-process stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(c.Out, "> ")
				if !in.Scan() {
					fmt.Fprintln(c.Out)
					return in.Err()
				}
				line := strings.TrimSpace(in.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				args, err := Split(line)
				if err == nil && len(args) > 0 && args[0] == "shell" {
					continue
				}
				if err == nil {
					sub := NewCommand(c)
					sub.SetArgs(args)
					sub.SetIn(cmd.InOrStdin())
					sub.SetOut(c.Out)
					sub.SetErr(c.Out)
					err = sub.ExecuteContext(cmd.Context())
				}
				if err != nil {
					fmt.Fprintln(c.Out, "error:", Describe(err))
				}
			}
		},
	}
}

// Split 按空白切分，支持单双引号
func Split(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		open  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, open = r, true
		case r == ' ' || r == '\t':
			if open {
				args = append(args, cur.String())
				cur.Reset()
				open = false
			}
		default:
			cur.WriteRune(r)
			open = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", domain.ErrValidation)
	}
	if open {
		args = append(args, cur.String())
	}
	return args, nil
}
