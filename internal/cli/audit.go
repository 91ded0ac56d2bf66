package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"guardian/internal/platform/config"
	"guardian/internal/platform/kafka"
	"guardian/pkg/domain"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/consumer"
)

// eventView is the JSON shape of an audit event on the command line.
type eventView struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Timestamp  time.Time `json:"timestamp"`
	WalletID   string    `json:"wallet_id,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Action     string    `json:"action"`
	Decision   string    `json:"decision,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	PolicyHash string    `json:"policy_hash,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
}

func viewOf(e audit.Event) eventView {
	return eventView{
		ID:         e.ID.String(),
		Category:   string(e.Category),
		Timestamp:  e.Timestamp,
		WalletID:   e.WalletID.String(),
		Subject:    e.Subject,
		Action:     e.Action,
		Decision:   e.Decision,
		Reason:     e.Reason,
		PolicyHash: e.PolicyHash,
		RequestID:  e.RequestID,
		ActorID:    e.ActorID,
	}
}

func (a *app) newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the audit trail from the outbox or from Kafka.",
	}
	cmd.AddCommand(a.newAuditListCommand(), a.newAuditTailCommand())
	return cmd
}

func (a *app) newAuditListCommand() *cobra.Command {
	var (
		wallet string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a wallet's audit events from the outbox, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			walletID, err := domain.ParseWalletID(wallet)
			if err != nil {
				return err
			}
			db, err := a.openDB(cmd.Context(), true)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("the memory store keeps no audit trail between runs; use --store sqlite or --store postgres")
			}
			defer db.Close()

			lister, ok := a.stores(db).audit.(audit.Lister)
			if !ok {
				return errors.New("audit store cannot list events")
			}
			events, err := lister.ListByWallet(cmd.Context(), walletID)
			if err != nil {
				return err
			}
			return writeEvents(cmd.OutOrStdout(), output, events)
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet id")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}

func writeEvents(w io.Writer, format string, events []audit.Event) error {
	switch format {
	case "json":
		views := make([]eventView, 0, len(events))
		for _, e := range events {
			views = append(views, viewOf(e))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "table", "":
		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{
				e.Timestamp.UTC().Format(time.RFC3339),
				string(e.Category),
				e.Action,
				e.Subject,
				e.Decision,
				e.Reason,
			})
		}
		return renderTable(w, []string{"Time", "Category", "Action", "Subject", "Decision", "Reason"}, rows)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

type tailOptions struct {
	categories []string
	fromStart  bool
	group      string
	max        int
	wallet     string
	output     string
}

func (a *app) newAuditTailCommand() *cobra.Command {
	opts := &tailOptions{}
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow audit events published to Kafka by the outbox relay.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTail(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringSlice("brokers", nil, "Kafka seed brokers")
	flags.StringSliceVar(&opts.categories, "category", nil, "Categories to follow: compliance, security, operations (default all)")
	flags.BoolVar(&opts.fromStart, "from-start", false, "Read from the earliest retained offset")
	flags.StringVar(&opts.group, "group", "", "Consumer group; offsets are committed when set")
	flags.IntVar(&opts.max, "max", 0, "Stop after this many events (0 follows until interrupted)")
	flags.StringVar(&opts.wallet, "wallet", "", "Only show events for this wallet")
	flags.StringVarP(&opts.output, "output", "o", "text", "Output format: text or json")
	if err := a.v.BindPFlag("brokers", flags.Lookup("brokers")); err != nil {
		panic(fmt.Sprintf("bind brokers flag: %v", err))
	}
	return cmd
}

func parseCategories(raw []string) ([]audit.EventCategory, error) {
	if len(raw) == 0 {
		return audit.Categories(), nil
	}
	out := make([]audit.EventCategory, 0, len(raw))
	for _, r := range raw {
		c := audit.EventCategory(strings.ToLower(strings.TrimSpace(r)))
		if !slices.Contains(audit.Categories(), c) {
			return nil, fmt.Errorf("unknown audit category %q", r)
		}
		out = append(out, c)
	}
	return out, nil
}

func (a *app) runTail(cmd *cobra.Command, opts *tailOptions) error {
	brokers := a.v.GetStringSlice("brokers")
	if len(brokers) == 0 {
		return errors.New("--brokers is required")
	}
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	categories, err := parseCategories(opts.categories)
	if err != nil {
		return err
	}

	p := &tailPrinter{w: cmd.OutOrStdout(), json: opts.output == "json", wallet: domain.WalletID(opts.wallet), max: opts.max}
	log := a.logger(cmd.ErrOrStderr())
	router := consumer.NewRouter(log, nil)
	for _, c := range categories {
		router.Register(c, p)
	}

	c, err := kafka.NewConsumer(config.KafkaConfig{Brokers: brokers, ClientID: cliSource}, kafka.ConsumerOptions{
		Topics:    router.Topics(),
		Group:     opts.group,
		FromStart: opts.fromStart,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	err = c.Run(cmd.Context(), router)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tailPrinter writes one line per event and stops the consumer after max.
type tailPrinter struct {
	w      io.Writer
	json   bool
	wallet domain.WalletID
	max    int
	seen   int
}

func (p *tailPrinter) HandleEvent(_ context.Context, e audit.Event) error {
	if p.wallet != "" && e.WalletID != p.wallet {
		return nil
	}
	var err error
	if p.json {
		err = json.NewEncoder(p.w).Encode(viewOf(e))
	} else {
		_, err = fmt.Fprintln(p.w, formatEventLine(e))
	}
	if err != nil {
		return err
	}
	p.seen++
	if p.max > 0 && p.seen >= p.max {
		return kafka.ErrStop
	}
	return nil
}

func formatEventLine(e audit.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-10s %s", e.Timestamp.UTC().Format(time.RFC3339), e.Category, e.Action)
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
	}
	field("wallet", e.WalletID.String())
	field("subject", e.Subject)
	if e.Decision != "" {
		fmt.Fprintf(&b, " decision=%s", colorVerdictString(e.Decision))
	}
	field("reason", e.Reason)
	field("request_id", e.RequestID)
	return b.String()
}
