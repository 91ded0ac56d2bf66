package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"guardian/internal/guardian"
	guardianhandler "guardian/internal/guardian/handler"
	"guardian/internal/guardian/service"
	"guardian/internal/incident"
	incidentstore "guardian/internal/incident/store"
	"guardian/internal/lockdown"
	lockdownstore "guardian/internal/lockdown/store"
	"guardian/internal/platform/config"
	"guardian/internal/profile"
	profilestore "guardian/internal/profile/store"
	"guardian/internal/shield"
	"guardian/internal/shield/adn"
	"guardian/internal/shield/dqsn"
	reputationstore "guardian/internal/shield/dqsn/store"
	"guardian/internal/shield/qwg"
	"guardian/internal/shield/sentinel"
	"guardian/internal/wsqk"
	"guardian/pkg/domain"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publishers/compliance"
	"guardian/pkg/platform/audit/publishers/security"
	auditmemory "guardian/pkg/platform/audit/store/memory"
	auditpostgres "guardian/pkg/platform/audit/store/postgres"
	auditsqlite "guardian/pkg/platform/audit/store/sqlite"
	txcontext "guardian/pkg/platform/tx"
	"guardian/pkg/requestcontext"
)

const cliSource = "guardianctl"

type evaluateOptions struct {
	contextFile string
	deny        []string
	suspicious  []string
	tokenSecret string
	output      string
}

func (a *app) newEvaluateCommand() *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a transaction context offline and print the decision.",
		Long: `Evaluate runs the full decision pipeline against the configured store.
With the memory store every run starts from an empty wallet history; with
sqlite or postgres, profiles, incidents and lockdowns accumulate across runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runEvaluate(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.contextFile, "context", "c", "-", "Transaction context JSON file, - for stdin")
	cmd.Flags().StringSliceVar(&opts.deny, "deny", nil, "Destination addresses to mark as denied")
	cmd.Flags().StringSliceVar(&opts.suspicious, "suspicious", nil, "Destination addresses to mark as suspicious")
	cmd.Flags().StringVar(&opts.tokenSecret, "token-secret", "", "Issue an execution token signed with this secret")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")
	return cmd
}

func (a *app) runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	now := time.Now().UTC()
	ctx := requestcontext.WithTime(cmd.Context(), now)
	ctx = requestcontext.WithRequestID(ctx, uuid.NewString())
	ctx = requestcontext.WithActor(ctx, cliSource)
	log := a.logger(cmd.ErrOrStderr())

	tc, err := readContext(cmd.InOrStdin(), opts.contextFile, now)
	if err != nil {
		return err
	}
	policy, err := a.policy()
	if err != nil {
		return err
	}

	db, err := a.openDB(ctx, true)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	st := a.stores(db)

	securityPub := security.New(st.audit, security.WithLogger(log))
	defer securityPub.Close()

	reputationStore := reputationstore.NewInMemory()
	reputations, err := dqsn.NewRegistry(reputationStore, dqsn.WithLogger(log))
	if err != nil {
		return err
	}
	if err := seedReputations(ctx, reputations, opts); err != nil {
		return err
	}

	lockdowns, err := lockdown.New(st.lockdowns, lockdown.WithLogger(log), lockdown.WithSecurityPublisher(securityPub), lockdown.WithPolicy(policy.Lockdown))
	if err != nil {
		return err
	}
	auditor := compliance.New(st.audit, compliance.WithLogger(log))
	incidents, err := incident.New(st.incidents, incident.WithLogger(log), incident.WithComplianceAuditor(auditor))
	if err != nil {
		return err
	}
	gatherer := shield.NewGatherer([]shield.Provider{
		sentinel.New(sentinel.DefaultConfig()),
		dqsn.New(reputationStore),
		adn.New(),
		qwg.New(qwg.DefaultHighValue),
	}, shield.WithLogger(log))

	svcOpts := []service.Option{
		service.WithPolicy(policy),
		service.WithTxRunner(st.tx),
		service.WithComplianceAuditor(auditor),
		service.WithLogger(log),
	}
	if opts.tokenSecret != "" {
		issuer, err := wsqk.NewIssuer([]byte(opts.tokenSecret))
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, service.WithTokenIssuer(issuer))
	}
	svc, err := service.New(gatherer, lockdowns, incidents, st.profiles, svcOpts...)
	if err != nil {
		return err
	}

	result, err := svc.Evaluate(ctx, tc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch opts.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(guardianhandler.FromResult(result))
	case "table", "":
		return writeResult(out, result)
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
}

type cliStores struct {
	tx        txcontext.Runner
	profiles  profile.Store
	incidents incident.Store
	lockdowns lockdown.Store
	audit     audit.Store
}

func (a *app) stores(db *sql.DB) cliStores {
	if db == nil {
		return cliStores{
			tx:        txcontext.NoopRunner{},
			profiles:  profilestore.NewInMemory(),
			incidents: incidentstore.NewInMemory(),
			lockdowns: lockdownstore.NewInMemory(),
			audit:     auditmemory.NewInMemoryStore(),
		}
	}
	st := cliStores{tx: txcontext.NewSQLRunner(db, 0)}
	if a.v.GetString("store") == config.BackendPostgres {
		st.profiles = profilestore.NewPostgres(db)
		st.incidents = incidentstore.NewPostgres(db)
		st.lockdowns = lockdownstore.NewPostgres(db)
		st.audit = auditpostgres.New(db)
		return st
	}
	st.profiles = profilestore.NewSQLite(db)
	st.incidents = incidentstore.NewSQLite(db)
	st.lockdowns = lockdownstore.NewSQLite(db)
	st.audit = auditsqlite.New(db)
	return st
}

// readContext decodes a transaction context in the evaluate API's JSON shape.
func readContext(stdin io.Reader, path string, now time.Time) (guardian.TransactionContext, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return guardian.TransactionContext{}, fmt.Errorf("open context: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req guardianhandler.EvaluateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return guardian.TransactionContext{}, fmt.Errorf("decode context: %w", err)
	}
	if err := req.Validate(); err != nil {
		return guardian.TransactionContext{}, err
	}
	return req.ToContext(now, "", ""), nil
}

func seedReputations(ctx context.Context, r *dqsn.Registry, opts *evaluateOptions) error {
	seed := func(addrs []string, level dqsn.Level) error {
		for _, raw := range addrs {
			addr, err := domain.ParseAddress(strings.TrimSpace(raw))
			if err != nil {
				return err
			}
			if _, err := r.Set(ctx, addr, level, cliSource); err != nil {
				return err
			}
		}
		return nil
	}
	if err := seed(opts.suspicious, dqsn.LevelSuspicious); err != nil {
		return err
	}
	return seed(opts.deny, dqsn.LevelDeny)
}

func writeResult(w io.Writer, r *service.Result) error {
	d := r.Decision
	if _, err := fmt.Fprintf(w, "Verdict: %s  score %s  coverage %s  stability %s\n",
		colorVerdict(d.Verdict), fmtFloat(d.Score), fmtFloat(d.Coverage), fmtFloat(d.StabilityIndex)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Decision %s under policy %s (%s)\n", d.ID, d.PolicyVersion, shortHash(d.PolicyHash)); err != nil {
		return err
	}

	rows := make([][]string, 0, len(r.Signals))
	for _, sig := range r.Signals {
		ls := d.Breakdown[sig.Layer]
		available := "yes"
		if !sig.Available {
			available = "no"
		}
		rows = append(rows, []string{
			string(sig.Layer),
			available,
			fmtFloat(sig.Score),
			fmtFloat(ls.Weight),
			fmtFloat(ls.Contribution),
			strings.Join(sig.Reasons, ", "),
		})
	}
	if err := renderTable(w, []string{"Layer", "Available", "Score", "Weight", "Contribution", "Reasons"}, rows); err != nil {
		return err
	}

	reasons := "none"
	if len(d.Reasons) > 0 {
		reasons = strings.Join(d.Reasons, ", ")
	}
	if _, err := fmt.Fprintf(w, "Reasons: %s\n", reasons); err != nil {
		return err
	}
	if r.IncidentID != nil {
		if _, err := fmt.Fprintf(w, "Incident opened: %s\n", r.IncidentID.String()); err != nil {
			return err
		}
	}
	if r.LockdownTriggered {
		if _, err := fmt.Fprintln(w, lockdownColor.Sprint("Lockdown triggered")); err != nil {
			return err
		}
	}
	if r.Token != nil {
		if _, err := fmt.Fprintf(w, "Token (expires %s): %s\n", r.Token.ExpiresAt.Format(time.RFC3339), r.Token.Value); err != nil {
			return err
		}
	}
	return nil
}
