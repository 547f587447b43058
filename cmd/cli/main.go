package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/handler"
	"github.com/aryan0dhankhar/pgledger/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	api      string
	logLevel string
	timeout  time.Duration
}

func (o *options) client() *client {
	return newClient(o.api, loadToken(), logger.New(os.Stderr, o.logLevel))
}

func (o *options) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "pgctl",
		Short:         "Operate the pgledger billing service",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.api, "api", apiURL(), "API base URL (PGLEDGER_API)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for retries and diagnostics")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall request timeout")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newTenantsCmd(opts))
	root.AddCommand(newRentsCmd(opts))
	root.AddCommand(newDashboardCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("PGLEDGER_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or PGLEDGER_PASSWORD) are required")
			}
			ctx, cancel := opts.context()
			defer cancel()

			var res service.LoginResult
			if err := opts.client().send(ctx, "POST", "/api/auth/login", handler.LoginRequest{Email: email, Password: password}, &res); err != nil {
				return err
			}
			if err := saveToken(res.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", res.Email, res.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().StringVar(&password, "password", "", "operator password")
	return cmd
}

func newTenantsCmd(opts *options) *cobra.Command {
	tenants := &cobra.Command{Use: "tenants", Short: "Tenant listings"}

	var all, daily bool
	var sortKey, dir string
	list := &cobra.Command{
		Use:   "list",
		Short: "List active tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, query := "/api/tenants/active", url.Values{}
			switch {
			case daily:
				path = "/api/tenants/daily"
			case all:
				path = "/api/tenants"
				query.Set("includeInactive", "true")
			}
			if sortKey != "" {
				query.Set("sort", sortKey)
				query.Set("dir", dir)
			}
			ctx, cancel := opts.context()
			defer cancel()

			var out []domain.Tenant
			if err := opts.client().get(ctx, path, query, &out); err != nil {
				return err
			}
			printTenants(cmd.OutOrStdout(), out)
			return nil
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include checked-out tenants")
	list.Flags().BoolVar(&daily, "daily", false, "daily accommodation tenants only")
	list.Flags().StringVar(&sortKey, "sort", "", "sort key (fullName, roomNumber, joiningDate, dueAmount)")
	list.Flags().StringVar(&dir, "dir", "asc", "sort direction")
	list.MarkFlagsMutuallyExclusive("all", "daily")

	tenants.AddCommand(list)
	return tenants
}

func printTenants(w io.Writer, tenants []domain.Tenant) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROOM\tJOINED\tMODEL\tAMOUNT\tSTATUS")
	for _, t := range tenants {
		model, amount, status := "monthly", "", ""
		if m, ok := t.Monthly(); ok {
			amount, status = m.RentDueAmount.StringFixed(2), string(m.PaymentStatus)
		}
		if d, ok := t.Daily(); ok {
			model, amount = "daily", d.CollectionAmount.StringFixed(2)
		}
		if !t.Active {
			status = "CHECKED_OUT"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.FullName, t.RoomNumber, t.JoiningDate, model, amount, status)
	}
	_ = tw.Flush()
}

func newRentsCmd(opts *options) *cobra.Command {
	rents := &cobra.Command{Use: "rents", Short: "Rent ledger operations"}
	rents.AddCommand(newRentListCmd(opts, "due", "Records with an outstanding balance"))
	rents.AddCommand(newRentListCmd(opts, "collected", "Records collected in the window"))
	rents.AddCommand(newPayCmd(opts))
	return rents
}

func rangeQuery(period, from, to string) url.Values {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return q
}

func newRentListCmd(opts *options, which, short string) *cobra.Command {
	var period, from, to string
	cmd := &cobra.Command{
		Use:   which,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			var out []domain.RentRecord
			if err := opts.client().get(ctx, "/api/rents/"+which, rangeQuery(period, from, to), &out); err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "current, last or all")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func printRecords(w io.Writer, records []domain.RentRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTENANT\tROOM\tMONTH\tDUE\tPAID\tBALANCE\tSTATUS\tCOLLECTED")
	total := decimal.Zero
	for _, r := range records {
		collected := ""
		if r.TransactionAt != nil {
			collected = r.TransactionAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.TenantName, r.RoomNumber, r.BillingMonth,
			r.DueAmount.StringFixed(2), r.PaidAmount.StringFixed(2), r.Balance().StringFixed(2),
			r.Status, collected)
		total = total.Add(r.PaidAmount)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d records, %s paid\n", len(records), total.StringFixed(2))
}

func newPayCmd(opts *options) *cobra.Command {
	var mode, amount, date string
	var account int64
	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Record a FULL or PARTIAL payment against a rent record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid rent record id %q", args[0])
			}
			req := handler.PayRequest{Mode: mode}
			if amount != "" {
				if req.Amount, err = decimal.NewFromString(amount); err != nil {
					return fmt.Errorf("invalid amount %q", amount)
				}
			}
			if account > 0 {
				req.AccountID = &account
			}
			if date != "" {
				if req.TransactionDate, err = domain.ParseDate(date); err != nil {
					return err
				}
			}
			ctx, cancel := opts.context()
			defer cancel()

			var rec domain.RentRecord
			if err := opts.client().send(ctx, "POST", fmt.Sprintf("/api/rents/%d/pay", id), req, &rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %d: paid %s of %s, status %s\n",
				rec.ID, rec.PaidAmount.StringFixed(2), rec.DueAmount.StringFixed(2), rec.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "FULL", "FULL or PARTIAL")
	cmd.Flags().StringVar(&amount, "amount", "", "amount for a PARTIAL payment")
	cmd.Flags().Int64Var(&account, "account", 0, "collection account id")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD), default now")
	return cmd
}

func newDashboardCmd(opts *options) *cobra.Command {
	var period, account string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if period != "" {
				q.Set("period", period)
			}
			if account != "" {
				q.Set("account", account)
			}
			ctx, cancel := opts.context()
			defer cancel()

			var res handler.DashboardResponse
			if err := opts.client().get(ctx, "/api/dashboard", q, &res); err != nil {
				return err
			}
			printDashboard(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "current, last or all")
	cmd.Flags().StringVar(&account, "account", "", "account id or ALL")
	return cmd
}

func printDashboard(w io.Writer, res handler.DashboardResponse) {
	d := res.Dashboard
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rent collected\t%s\n", d.TotalRentCollection.StringFixed(2))
	fmt.Fprintf(tw, "Daily collected\t%s\n", d.TotalDailyCollection.StringFixed(2))
	fmt.Fprintf(tw, "Pending collection\t%s\n", d.TotalPendingCollection.StringFixed(2))
	fmt.Fprintf(tw, "Total due\t%s\n", d.TotalDueAmount.StringFixed(2))
	fmt.Fprintf(tw, "Active tenants\t%d (%d daily)\n", d.ActiveTenants, d.DailyTenants)
	fmt.Fprintf(tw, "Paid / partial / due\t%d / %d / %d\n",
		d.PaidTenantsThisMonth, d.PartialTenantsThisMonth, d.DueTenantsThisMonth)
	fmt.Fprintf(tw, "Beds occupied\t%d of %d (%d vacant)\n", d.OccupiedBeds, d.TotalBeds, d.VacantBeds)
	fmt.Fprintf(tw, "Refreshed\t%s\n", res.RefreshedAt.Local().Format(time.RFC1123))
	_ = tw.Flush()
}

func newExportCmd(opts *options) *cobra.Command {
	var period, from, to, account, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the collection report as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := rangeQuery(period, from, to)
			if account != "" {
				q.Set("accountId", account)
			}
			ctx, cancel := opts.context()
			defer cancel()

			file, err := opts.client().fetch(ctx, "/api/rents/export", q)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, file.Filename)
			if err := os.WriteFile(path, file.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "current, last or all")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&account, "account", "", "account id or ALL")
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	return cmd
}
