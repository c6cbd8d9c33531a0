// Package zonecheck verifies every RRSIG of a signed zone in master file
// format against the DNSKEYs at the zone apex.
package zonecheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/0xERR0R/rrsigcheck/config"
	"github.com/0xERR0R/rrsigcheck/dnssec"
	"github.com/0xERR0R/rrsigcheck/log"
	"github.com/0xERR0R/rrsigcheck/trie"
)

const dnskeyProtocolValue = 3 // RFC 4034 §2.1.2

var (
	ErrNoDNSKEY             = errors.New("zone has no DNSKEY at the apex")
	ErrNoMatchingKey        = errors.New("no matching DNSKEY")
	ErrForeignSigner        = errors.New("signer is not the zone apex")
	ErrSignatureExpired     = errors.New("signature expired")
	ErrSignatureNotYetValid = errors.New("signature not yet valid")
	ErrUnsigned             = errors.New("RRset is not signed")
)

// Checker verifies the signatures of zone files
type Checker struct {
	cfg config.VerifyConfig
	now func() time.Time
}

// Option configures a Checker
type Option func(*Checker)

// WithClock sets the time source for the validity period check
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker creates a new checker with the given configuration.
// Zero workers means a single worker.
func NewChecker(cfg config.VerifyConfig, opts ...Option) *Checker {
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	c := &Checker{
		cfg: cfg,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	registerMetrics()

	return c
}

type rrsetKey struct {
	owner  string
	class  uint16
	rrtype uint16
}

type task struct {
	rrset []dns.RR
	rrsig *dns.RRSIG
}

// zoneData is a parsed zone grouped into RRsets
type zoneData struct {
	apex   string
	order  []rrsetKey
	rrsets map[rrsetKey][]dns.RR
	rrsigs map[rrsetKey][]*dns.RRSIG
	keys   []*dns.DNSKEY
	cuts   map[string]bool
	below  *trie.Trie
}

// Check parses the master file read from r with origin zone and verifies
// every RRSIG in it. The returned error reports problems reading the zone or
// a cancelled context, signature problems are part of the report.
func (c *Checker) Check(ctx context.Context, zone string, r io.Reader) (*Report, error) {
	start := time.Now()
	apex := dns.CanonicalName(zone)
	id := uuid.New().String()

	ctx, logger := log.CtxWithFields(ctx, logrus.Fields{"zone": apex, "check_id": id})

	zd, err := parseZone(apex, r)
	if err != nil {
		return nil, err
	}

	if len(zd.keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDNSKEY, apex)
	}

	logger.Debugf("parsed %d RRsets, %d DNSKEYs", len(zd.order), len(zd.keys))

	report := &Report{
		ID:                id,
		Zone:              apex,
		failOnUnsupported: c.cfg.FailOnUnsupported,
	}

	var tasks []task

	for _, key := range zd.order {
		sigs := zd.rrsigs[key]
		if len(sigs) == 0 {
			if zd.isAuthoritative(key) {
				report.Unsigned = append(report.Unsigned, RRsetID{Owner: key.owner, Type: key.rrtype})
			}

			continue
		}

		for _, sig := range sigs {
			tasks = append(tasks, task{rrset: zd.rrsets[key], rrsig: sig})
		}
	}

	findings, err := c.run(ctx, zd, tasks)
	if err != nil {
		return nil, err
	}

	report.Findings = findings
	report.Duration = time.Since(start)
	report.sort()

	checkDuration.Observe(report.Duration.Seconds())

	logger.Infof("checked %d signatures in %s: %d valid, %d invalid, %d errors, %d unsigned RRsets",
		len(findings), durafmt.Parse(report.Duration).LimitFirstN(2),
		report.Count(dnssec.ResultValid), report.Count(dnssec.ResultInvalid),
		report.Count(dnssec.ResultError), len(report.Unsigned))

	return report, nil
}

// run verifies all tasks with at most cfg.Workers goroutines
func (c *Checker) run(ctx context.Context, zd *zoneData, tasks []task) ([]Finding, error) {
	verifier := dnssec.NewVerifier(log.FromCtx(ctx).WithField("prefix", "dnssec"))
	findings := make([]Finding, len(tasks))
	now := c.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(c.cfg.Workers))

	for i, t := range tasks {
		if gctx.Err() != nil {
			break
		}

		i, t := i, t

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			findings[i] = c.checkSignature(verifier, zd, t, now)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return findings, nil
}

func (c *Checker) checkSignature(verifier *dnssec.Verifier, zd *zoneData, t task, now time.Time) Finding {
	f := Finding{
		Owner:     t.rrset[0].Header().Name,
		Type:      t.rrsig.TypeCovered,
		KeyTag:    t.rrsig.KeyTag,
		Algorithm: t.rrsig.Algorithm,
	}

	f.Result, f.Err = c.verify(verifier, zd, t, now)

	verificationsTotal.WithLabelValues(algorithmLabel(f.Algorithm), f.Result.String()).Inc()

	return f
}

func (c *Checker) verify(verifier *dnssec.Verifier, zd *zoneData, t task, now time.Time) (dnssec.Result, error) {
	if dns.CanonicalName(t.rrsig.SignerName) != zd.apex {
		return dnssec.ResultError, fmt.Errorf("%w: %s", ErrForeignSigner, t.rrsig.SignerName)
	}

	keys := findMatchingDNSKEYs(zd.keys, t.rrsig.KeyTag, t.rrsig.Algorithm)
	if len(keys) == 0 {
		return dnssec.ResultError, fmt.Errorf("%w: key tag %d, algorithm %d",
			ErrNoMatchingKey, t.rrsig.KeyTag, t.rrsig.Algorithm)
	}

	if c.cfg.CheckValidityPeriod {
		if err := c.checkValidityPeriod(t.rrsig, now); err != nil {
			return dnssec.ResultError, err
		}
	}

	return verifyWithKeys(verifier, t, keys)
}

// verifyWithKeys tries every candidate key, key tags are not unique
// (RFC 4035 §5.3.1). Without a valid signature an Invalid result is
// preferred over errors of other keys.
func verifyWithKeys(verifier *dnssec.Verifier, t task, keys []*dns.DNSKEY) (dnssec.Result, error) {
	var (
		result dnssec.Result
		err    error
	)

	for i, key := range keys {
		res, verr := verifier.Verify(t.rrset, t.rrsig, key)
		if res == dnssec.ResultValid {
			return res, nil
		}

		if i == 0 || (res == dnssec.ResultInvalid && result != dnssec.ResultInvalid) {
			result, err = res, verr
		}
	}

	return result, err
}

// checkValidityPeriod checks inception <= now <= expiration, both bounds
// widened by the clock skew tolerance
func (c *Checker) checkValidityPeriod(rrsig *dns.RRSIG, now time.Time) error {
	tolerance := int64(c.cfg.ClockSkewTolerance.ToDuration().Seconds())
	ts := now.Unix()

	if ts < int64(rrsig.Inception)-tolerance {
		return fmt.Errorf("%w (inception: %s, tolerance: %s)", ErrSignatureNotYetValid,
			dns.TimeToString(rrsig.Inception), c.cfg.ClockSkewTolerance)
	}

	if ts > int64(rrsig.Expiration)+tolerance {
		return fmt.Errorf("%w (expiration: %s, tolerance: %s)", ErrSignatureExpired,
			dns.TimeToString(rrsig.Expiration), c.cfg.ClockSkewTolerance)
	}

	return nil
}

func findMatchingDNSKEYs(keys []*dns.DNSKEY, keyTag uint16, algorithm uint8) []*dns.DNSKEY {
	var result []*dns.DNSKEY

	for _, key := range keys {
		if key.Protocol != dnskeyProtocolValue {
			continue
		}

		if key.KeyTag() == keyTag && key.Algorithm == algorithm {
			result = append(result, key)
		}
	}

	return result
}

func parseZone(apex string, r io.Reader) (*zoneData, error) {
	zd := &zoneData{
		apex:   apex,
		rrsets: make(map[rrsetKey][]dns.RR),
		rrsigs: make(map[rrsetKey][]*dns.RRSIG),
		cuts:   make(map[string]bool),
		below:  trie.NewTrie(trie.SplitTLD),
	}

	zp := dns.NewZoneParser(r, apex, "")

	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		zd.add(rr)
	}

	if err := zp.Err(); err != nil {
		return nil, fmt.Errorf("can't parse zone '%s': %w", apex, err)
	}

	return zd, nil
}

func (zd *zoneData) add(rr dns.RR) {
	hdr := rr.Header()
	owner := dns.CanonicalName(hdr.Name)

	switch x := rr.(type) {
	case *dns.RRSIG:
		key := rrsetKey{owner: owner, class: hdr.Class, rrtype: x.TypeCovered}
		zd.rrsigs[key] = append(zd.rrsigs[key], x)

		return
	case *dns.DNSKEY:
		if owner == zd.apex {
			zd.keys = append(zd.keys, x)
		}
	case *dns.NS:
		if owner != zd.apex {
			zd.cuts[owner] = true
			zd.below.Insert(owner)
		}
	}

	key := rrsetKey{owner: owner, class: hdr.Class, rrtype: hdr.Rrtype}
	if _, ok := zd.rrsets[key]; !ok {
		zd.order = append(zd.order, key)
	}

	zd.rrsets[key] = append(zd.rrsets[key], rr)
}

// isAuthoritative reports whether the RRset must be signed: it is inside the
// zone and not below a zone cut. At a cut only DS and NSEC are signed.
func (zd *zoneData) isAuthoritative(key rrsetKey) bool {
	if !dns.IsSubDomain(zd.apex, key.owner) {
		return false
	}

	if zd.cuts[key.owner] {
		return key.rrtype == dns.TypeDS || key.rrtype == dns.TypeNSEC
	}

	return !zd.below.HasParentOf(key.owner)
}

// Report is the outcome of a zone check
type Report struct {
	// ID identifies the check run in log output
	ID       string
	Zone     string
	Findings []Finding
	Unsigned []RRsetID
	Duration time.Duration

	failOnUnsupported bool
}

// Count returns the number of findings with result res
func (r *Report) Count(res dnssec.Result) int {
	n := 0

	for _, f := range r.Findings {
		if f.Result == res {
			n++
		}
	}

	return n
}

// Err returns all invalid signatures, verification errors and unsigned
// RRsets as one error, or nil if the zone is fine. Unsupported algorithms
// only count if the report was created with FailOnUnsupported.
func (r *Report) Err() error {
	var result *multierror.Error

	for _, f := range r.Findings {
		if f.Result == dnssec.ResultValid {
			continue
		}

		if !r.failOnUnsupported && errors.Is(f.Err, dnssec.ErrUnsupportedAlgorithm) {
			continue
		}

		result = multierror.Append(result, f.error())
	}

	for _, u := range r.Unsigned {
		result = multierror.Append(result, fmt.Errorf("%s: %w", u, ErrUnsigned))
	}

	return result.ErrorOrNil()
}

func (r *Report) sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]

		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}

		if a.Type != b.Type {
			return a.Type < b.Type
		}

		return a.KeyTag < b.KeyTag
	})
}

// RRsetID identifies an RRset of the zone
type RRsetID struct {
	Owner string
	Type  uint16
}

func (id RRsetID) String() string {
	return fmt.Sprintf("%s %s", id.Owner, dns.Type(id.Type))
}

// Finding is the result of checking one RRSIG
type Finding struct {
	Owner     string
	Type      uint16
	KeyTag    uint16
	Algorithm uint8
	Result    dnssec.Result
	Err       error
}

func (f Finding) String() string {
	s := fmt.Sprintf("%s %s (%s, key %d)", f.Owner, dns.Type(f.Type), algorithmLabel(f.Algorithm), f.KeyTag)

	if f.Err != nil {
		s = fmt.Sprintf("%s: %s", s, f.Err)
	}

	return s
}

func (f Finding) error() error {
	if f.Err != nil {
		return fmt.Errorf("%s %s key %d: %w", f.Owner, dns.Type(f.Type), f.KeyTag, f.Err)
	}

	return fmt.Errorf("%s %s key %d: signature is %s", f.Owner, dns.Type(f.Type), f.KeyTag, f.Result)
}

func algorithmLabel(alg uint8) string {
	if name, ok := dns.AlgorithmToString[alg]; ok {
		return name
	}

	return fmt.Sprintf("ALG%d", alg)
}
