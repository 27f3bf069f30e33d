// Package enrich annotates probing peers with reverse DNS and GeoIP data.
package enrich

import (
	"context"
	"net"
	"net/netip"
	"path/filepath"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/oschwald/geoip2-golang"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/util"
)

const (
	asnDatabase  = "GeoLite2-ASN.mmdb"
	cityDatabase = "GeoLite2-City.mmdb"

	defaultCacheTTL = time.Hour
	defaultTimeout  = time.Second
	resolvConf      = "/etc/resolv.conf"
)

// Result is what is known about a peer. Zero fields were not found.
type Result struct {
	PTR     string
	ASN     uint
	ASNName string
	Country string
	City    string

	fetched time.Time
}

// Options configures an Enricher.
type Options struct {
	// GeoIPDir holds GeoLite2-ASN.mmdb and/or GeoLite2-City.mmdb. Missing
	// databases disable the matching lookup.
	GeoIPDir string
	// Nameserver answers PTR queries, as host or host:port. Empty means the
	// first server of /etc/resolv.conf.
	Nameserver string
	CacheTTL   time.Duration
	Timeout    time.Duration
	Logger     *zap.Logger
}

type Enricher struct {
	mu     sync.RWMutex
	cache  map[netip.Addr]Result
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
	asnDB  *geoip2.Reader
	cityDB *geoip2.Reader

	client     *dns.Client
	nameserver string
}

// New opens the GeoIP databases found in opts.GeoIPDir and resolves the
// nameserver used for PTR lookups.
func New(opts Options) (*Enricher, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	e := &Enricher{
		cache:  map[netip.Addr]Result{},
		ttl:    opts.CacheTTL,
		now:    time.Now,
		log:    opts.Logger,
		client: &dns.Client{Timeout: opts.Timeout},
	}

	if opts.GeoIPDir != "" {
		var err error
		if e.asnDB, err = openDatabase(filepath.Join(opts.GeoIPDir, asnDatabase)); err != nil {
			return nil, err
		}
		if e.cityDB, err = openDatabase(filepath.Join(opts.GeoIPDir, cityDatabase)); err != nil {
			e.Close()
			return nil, err
		}
	}

	nameserver, err := resolveNameserver(opts.Nameserver)
	if err != nil {
		e.log.Warn("Reverse DNS disabled", zap.Error(err))
	}
	e.nameserver = nameserver
	return e, nil
}

func openDatabase(path string) (*geoip2.Reader, error) {
	exists, err := util.IsFilePathExists(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "checking GeoIP database %s", path)
	}
	if !exists {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "opening GeoIP database %s", path)
	}
	return db, nil
}

func resolveNameserver(configured string) (string, error) {
	if configured != "" {
		if _, _, err := net.SplitHostPort(configured); err == nil {
			return configured, nil
		}
		return net.JoinHostPort(configured, "53"), nil
	}
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return "", pkgerrors.Wrap(err, "reading resolver configuration")
	}
	if len(cfg.Servers) == 0 {
		return "", pkgerrors.Errorf("no nameserver in %s", resolvConf)
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}

// Close releases the GeoIP databases.
func (e *Enricher) Close() {
	if e.asnDB != nil {
		_ = e.asnDB.Close()
	}
	if e.cityDB != nil {
		_ = e.cityDB.Close()
	}
}

// GeoIPEnabled reports whether at least one GeoIP database is open.
func (e *Enricher) GeoIPEnabled() bool {
	return e != nil && (e.asnDB != nil || e.cityDB != nil)
}

// Lookup returns the cached result for addr or queries DNS and GeoIP.
// Lookup failures leave the matching fields empty.
func (e *Enricher) Lookup(ctx context.Context, addr netip.Addr) Result {
	addr = addr.Unmap()
	now := e.now()

	e.mu.RLock()
	if r, ok := e.cache[addr]; ok && now.Sub(r.fetched) < e.ttl {
		e.mu.RUnlock()
		return r
	}
	e.mu.RUnlock()

	r := Result{fetched: now}
	if name, err := e.lookupPTR(ctx, addr); err != nil {
		e.log.Debug("Reverse lookup failed", zap.Stringer("address", addr), zap.Error(err))
	} else {
		r.PTR = name
	}

	ip := net.IP(addr.AsSlice())
	if e.asnDB != nil {
		if rec, err := e.asnDB.ASN(ip); err == nil {
			r.ASN = rec.AutonomousSystemNumber
			r.ASNName = rec.AutonomousSystemOrganization
		}
	}
	if e.cityDB != nil {
		if rec, err := e.cityDB.City(ip); err == nil {
			if name := rec.Country.Names["en"]; name != "" {
				r.Country = name
			} else {
				r.Country = rec.Country.IsoCode
			}
			r.City = rec.City.Names["en"]
		}
	}

	e.mu.Lock()
	e.cache[addr] = r
	e.mu.Unlock()
	return r
}

func (e *Enricher) lookupPTR(ctx context.Context, addr netip.Addr) (string, error) {
	if e.nameserver == "" {
		return "", nil
	}
	reverse, err := dns.ReverseAddr(addr.String())
	if err != nil {
		return "", err
	}
	m := new(dns.Msg)
	m.SetQuestion(reverse, dns.TypePTR)
	resp, _, err := e.client.ExchangeContext(ctx, m, e.nameserver)
	if err != nil {
		return "", err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", pkgerrors.Errorf("PTR query for %s: %s", reverse, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return ptr.Ptr, nil
		}
	}
	return "", nil
}

// Annotate returns the non-empty fields of the lookup for addr as log fields.
func (e *Enricher) Annotate(ctx context.Context, addr netip.Addr) []zap.Field {
	r := e.Lookup(ctx, addr)
	var fields []zap.Field
	if r.PTR != "" {
		fields = append(fields, zap.String("ptr", r.PTR))
	}
	if r.ASN != 0 {
		fields = append(fields, zap.Uint("asn", r.ASN), zap.String("asnName", r.ASNName))
	}
	if r.Country != "" {
		fields = append(fields, zap.String("country", r.Country))
	}
	if r.City != "" {
		fields = append(fields, zap.String("city", r.City))
	}
	return fields
}
