// Package dirsync drives directory synchronization: one bound session per run, one
// concurrent search per organizational unit, every entry decoded and reconciled as it arrives.
package dirsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Onboard360/Onboard360/internal/db/controller/directoryprofile"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryuser"
	"github.com/Onboard360/Onboard360/internal/db/controller/syncstatus"
	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
	"github.com/Onboard360/Onboard360/internal/directory/attribute"
	"github.com/Onboard360/Onboard360/internal/directory/outree"
)

// Status values reported by Service.Status.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Profiles resolves profiles and their credentials.
type Profiles interface {
	Get(ctx context.Context, id uint) (*models.DirectoryProfile, error)
	GetByPrincipal(ctx context.Context, principal string) (*models.DirectoryProfile, error)
	Decrypt(p *models.DirectoryProfile) (string, error)
}

// Reconciler stores decoded accounts.
type Reconciler interface {
	Reconcile(ctx context.Context, u *models.DirectoryUser) (directoryuser.Outcome, error)
}

// Summaries keeps the summary of the last run per profile.
type Summaries interface {
	Save(ctx context.Context, sum *syncstatus.Summary) error
	Load(ctx context.Context, profileID uint) (*syncstatus.Summary, error)
}

// Options tune the service.
type Options struct {
	// MaxConcurrentSearches bounds the OU searches running at once on the shared session.
	MaxConcurrentSearches int `default:"8"`
	// FallbackSearchBase is browsed when a profile search base has no DC component.
	FallbackSearchBase string `default:"DC=BCS,DC=local"`
}

// Service runs synchronization, browsing and connectivity checks against directory profiles.
type Service struct {
	connector  directory.Connector
	profiles   Profiles
	reconciler Reconciler
	summaries  Summaries
	opts       Options
}

// New creates a Service. summaries may be nil.
func New(connector directory.Connector, profiles Profiles, reconciler Reconciler, summaries Summaries, opts Options) (*Service, error) {
	if err := defaults.Set(&opts); err != nil {
		return nil, fmt.Errorf("failed to set default values: %w", err)
	}

	return &Service{
		connector:  connector,
		profiles:   profiles,
		reconciler: reconciler,
		summaries:  summaries,
		opts:       opts,
	}, nil
}

// Result collects the outcome of one synchronization run.
type Result struct {
	Entries       []models.DirectoryUser
	Inserted      int
	Updated       int
	OUErrors      map[string]error
	DecodeErrors  []error
	StorageErrors []error
	Duration      time.Duration
}

func (r *Result) summary(profileID uint, ous []string, started time.Time, canceled bool) *syncstatus.Summary {
	sum := &syncstatus.Summary{
		ProfileID:     profileID,
		OUs:           ous,
		StartedAt:     started,
		FinishedAt:    started.Add(r.Duration),
		Entries:       len(r.Entries),
		Inserted:      r.Inserted,
		Updated:       r.Updated,
		DecodeErrors:  len(r.DecodeErrors),
		StorageErrors: len(r.StorageErrors),
		Canceled:      canceled,
	}

	if len(r.OUErrors) > 0 {
		sum.OUErrors = make(map[string]string, len(r.OUErrors))
		for ou, err := range r.OUErrors {
			sum.OUErrors[ou] = err.Error()
		}
	}

	return sum
}

// open loads a profile and returns a bound session for it.
func (s *Service) open(ctx context.Context, profileID uint) (*models.DirectoryProfile, directory.Session, error) {
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}

	credential, err := s.profiles.Decrypt(p)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.connector.Open(ctx, directoryprofile.Endpoint(p), p.BindPrincipal, credential)
	if err != nil {
		return nil, nil, err
	}

	return p, session, nil
}

// Sync searches every OU in ous for user accounts and reconciles them. An empty ous
// searches the profile search base. A failing OU is recorded in Result.OUErrors while the
// others continue. Connection and bind failures abort the run. If ctx is canceled the
// entries reconciled so far are returned together with the context error.
func (s *Service) Sync(ctx context.Context, profileID uint, ous []string) (*Result, error) {
	started := time.Now()

	p, session, err := s.open(ctx, profileID)
	if err != nil {
		return nil, err
	}

	var closeOnce sync.Once

	closeSession := func() {
		closeOnce.Do(func() {
			if errClose := session.Close(); errClose != nil {
				log.Warn().Err(errClose).Uint("domain_id", profileID).Msg("failed to close directory session")
			}
		})
	}

	stop := context.AfterFunc(ctx, closeSession)
	defer stop()

	ous = normalizeOUs(ous, p.SearchBase)
	shortID := directoryprofile.ShortIDOf(p)

	var (
		mu     sync.Mutex
		result = &Result{OUErrors: map[string]error{}}
		g      errgroup.Group
	)

	g.SetLimit(s.opts.MaxConcurrentSearches)

	for _, ou := range ous {
		g.Go(func() error {
			s.searchOU(ctx, session, ou, shortID, &mu, result)

			return nil
		})
	}

	_ = g.Wait()

	closeSession()

	result.Duration = time.Since(started)
	syncDuration.Observe(result.Duration.Seconds())

	canceled := ctx.Err() != nil

	log.Info().
		Uint("domain_id", profileID).
		Int("ous", len(ous)).
		Int("entries", len(result.Entries)).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("ou_errors", len(result.OUErrors)).
		Int("decode_errors", len(result.DecodeErrors)).
		Int("storage_errors", len(result.StorageErrors)).
		Bool("canceled", canceled).
		Dur("duration", result.Duration).
		Msg("directory sync finished")

	if s.summaries != nil {
		sumCtx := context.WithoutCancel(ctx)
		if errSave := s.summaries.Save(sumCtx, result.summary(profileID, ous, started, canceled)); errSave != nil {
			log.Error().Err(errSave).Uint("domain_id", profileID).Msg("failed to save sync summary")
		}
	}

	if canceled {
		return result, ctx.Err()
	}

	return result, nil
}

// searchOU drains one OU search, reconciling each entry as soon as it is decoded.
func (s *Service) searchOU(
	ctx context.Context,
	session directory.Session,
	ou, shortID string,
	mu *sync.Mutex,
	result *Result,
) {
	stream := session.Search(ctx, directory.SearchRequest{
		BaseDN:     ou,
		Filter:     attribute.UserFilter,
		Attributes: attribute.UserAttributes,
	})

	for stream.Next() {
		u, decodeErrs := attribute.DecodeUser(stream.Entry(), shortID)

		for _, err := range decodeErrs {
			log.Debug().Err(err).Str("ou", ou).Str("dn", stream.Entry().DN).Msg("attribute not decoded")
		}

		if u.LogonName == "" {
			mu.Lock()
			result.DecodeErrors = append(result.DecodeErrors, decodeErrs...)
			mu.Unlock()

			continue
		}

		outcome, err := s.reconciler.Reconcile(ctx, &u)

		mu.Lock()
		result.DecodeErrors = append(result.DecodeErrors, decodeErrs...)
		result.Entries = append(result.Entries, u)

		switch {
		case err != nil:
			result.StorageErrors = append(result.StorageErrors, err)
		case outcome == directoryuser.Inserted:
			result.Inserted++
		case outcome == directoryuser.Updated:
			result.Updated++
		}
		mu.Unlock()

		if err != nil {
			log.Error().Err(err).Str("ou", ou).Str("samaccountname", u.LogonName).Msg("failed to store directory user")
		} else {
			entriesSynced.WithLabelValues(outcome.String()).Inc()
		}
	}

	err := stream.Err()
	if err == nil && ctx.Err() != nil {
		err = &directory.SearchError{BaseDN: ou, Err: ctx.Err()}
	}

	if err != nil {
		ouSearchFailures.Inc()
		log.Warn().Err(err).Str("ou", ou).Msg("organizational unit search failed")

		mu.Lock()
		result.OUErrors[ou] = err
		mu.Unlock()
	}
}

// normalizeOUs drops blanks and duplicates. An empty selection falls back to base.
func normalizeOUs(ous []string, base string) []string {
	out := make([]string, 0, len(ous))

	for _, ou := range ous {
		ou = strings.TrimSpace(ou)
		if ou == "" || slices.Contains(out, ou) {
			continue
		}

		out = append(out, ou)
	}

	if len(out) == 0 {
		out = append(out, base)
	}

	return out
}

// TestInput carries the connection fields of a bind test.
type TestInput struct {
	Host          string `json:"domain_controller"       validate:"required,max=255"`
	Port          int    `json:"port"                    validate:"min=0,max=65535"`
	BindPrincipal string `json:"read_only_user"          validate:"required,max=255"`
	Credential    string `json:"read_only_user_password"`
	UseTLS        bool   `json:"ssl_enabled"`
	SkipVerify    bool   `json:"skip_verify"`
}

// Test binds with the given fields and closes the session again. Without a credential the
// stored credential of the profile binding as the same principal is used.
func (s *Service) Test(ctx context.Context, in TestInput) error {
	credential := in.Credential
	if credential == "" {
		p, err := s.profiles.GetByPrincipal(ctx, in.BindPrincipal)
		if err != nil {
			return err
		}

		if credential, err = s.profiles.Decrypt(p); err != nil {
			return err
		}
	}

	ep := directory.Endpoint{Host: in.Host, Port: in.Port, UseTLS: in.UseTLS, SkipVerify: in.SkipVerify}

	session, err := s.connector.Open(ctx, ep, in.BindPrincipal, credential)
	if err != nil {
		return err
	}

	return session.Close()
}

// Status is the liveness of one profile.
type Status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status binds with a stored profile. Connection and bind failures are reported as
// StatusInactive rather than as an error; only a missing or unreadable profile is an error.
func (s *Service) Status(ctx context.Context, profileID uint) (*Status, error) {
	_, session, err := s.open(ctx, profileID)
	if err != nil {
		if errors.Is(err, directory.ErrConnection) || errors.Is(err, directory.ErrAuth) {
			return &Status{Status: StatusInactive, Error: err.Error()}, nil
		}

		return nil, err
	}

	if errClose := session.Close(); errClose != nil {
		log.Warn().Err(errClose).Uint("domain_id", profileID).Msg("failed to close directory session")
	}

	return &Status{Status: StatusActive}, nil
}

// OrganizationalUnits returns the OU tree below the profile search base.
func (s *Service) OrganizationalUnits(ctx context.Context, profileID uint) ([]*outree.Node, error) {
	p, session, err := s.open(ctx, profileID)
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := session.Close(); errClose != nil {
			log.Warn().Err(errClose).Uint("domain_id", profileID).Msg("failed to close directory session")
		}
	}()

	base := p.SearchBase
	if !strings.Contains(strings.ToLower(base), "dc=") {
		log.Warn().Str("base_dn", base).Str("fallback", s.opts.FallbackSearchBase).Msg("search base has no DC component")
		base = s.opts.FallbackSearchBase
	}

	stream := session.Search(ctx, directory.SearchRequest{
		BaseDN:     base,
		Filter:     outree.Filter,
		Attributes: outree.Attributes,
	})

	var entries []*ldap.Entry

	for stream.Next() {
		entries = append(entries, stream.Entry())
	}

	if err = stream.Err(); err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	return outree.Build(outree.FromLDAP(entries)), nil
}

// LastSync returns the summary of the last run of a profile.
func (s *Service) LastSync(ctx context.Context, profileID uint) (*syncstatus.Summary, error) {
	if s.summaries == nil {
		return nil, ErrNoSummaries
	}

	return s.summaries.Load(ctx, profileID)
}

// ErrNoSummaries is returned by LastSync when the service keeps no summaries.
var ErrNoSummaries = errors.New("sync summaries are not kept")
