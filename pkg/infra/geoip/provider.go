package geoip

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
)

var ErrNoDatabase = errors.New("no geoip database loaded")

type Config struct {
	CountryDB   string `mapstructure:"country_db"`
	CityDB      string `mapstructure:"city_db"`
	ASNDB       string `mapstructure:"asn_db"`
	AnonymousDB string `mapstructure:"anonymous_db"`
}

type provider struct {
	logger *logrus.Logger

	mu          sync.RWMutex
	countryDB   *geoip2.Reader
	cityDB      *geoip2.Reader
	asnDB       *geoip2.Reader
	anonymousDB *geoip2.Reader
}

// Provider resolves locations from local MaxMind databases.
type Provider interface {
	signals.GeoProvider
	Reload(cfg Config) error
	Close() error
}

// NewProvider opens every configured database. Missing paths are skipped; a
// configured path that cannot be read is an error.
func NewProvider(cfg Config, logger *logrus.Logger) (Provider, error) {
	p := &provider{logger: logger}
	if err := p.Reload(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *provider) Reload(cfg Config) error {
	country, err := openReader(cfg.CountryDB)
	if err != nil {
		return fmt.Errorf("country db: %w", err)
	}
	city, err := openReader(cfg.CityDB)
	if err != nil {
		closeReaders(country)
		return fmt.Errorf("city db: %w", err)
	}
	asn, err := openReader(cfg.ASNDB)
	if err != nil {
		closeReaders(country, city)
		return fmt.Errorf("asn db: %w", err)
	}
	anon, err := openReader(cfg.AnonymousDB)
	if err != nil {
		closeReaders(country, city, asn)
		return fmt.Errorf("anonymous ip db: %w", err)
	}

	p.mu.Lock()
	old := []*geoip2.Reader{p.countryDB, p.cityDB, p.asnDB, p.anonymousDB}
	p.countryDB, p.cityDB, p.asnDB, p.anonymousDB = country, city, asn, anon
	p.mu.Unlock()
	closeReaders(old...)

	p.logger.WithFields(logrus.Fields{
		"country":   country != nil,
		"city":      city != nil,
		"asn":       asn != nil,
		"anonymous": anon != nil,
	}).Info("geoip databases loaded")
	return nil
}

func (p *provider) Lookup(ctx context.Context, ip string) (*signals.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("invalid ip %q", ip)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.countryDB == nil && p.cityDB == nil && p.asnDB == nil && p.anonymousDB == nil {
		return nil, ErrNoDatabase
	}

	loc := &signals.Location{}
	if p.cityDB != nil {
		city, err := p.cityDB.City(parsed)
		if err != nil {
			return nil, fmt.Errorf("city lookup: %w", err)
		}
		loc.Country = city.Country.IsoCode
		loc.City = city.City.Names["en"]
		loc.IsProxy = city.Traits.IsAnonymousProxy
	} else if p.countryDB != nil {
		country, err := p.countryDB.Country(parsed)
		if err != nil {
			return nil, fmt.Errorf("country lookup: %w", err)
		}
		loc.Country = country.Country.IsoCode
		loc.IsProxy = country.Traits.IsAnonymousProxy
	}
	if p.asnDB != nil {
		asn, err := p.asnDB.ASN(parsed)
		if err == nil {
			loc.ASN = asn.AutonomousSystemNumber
			loc.Org = asn.AutonomousSystemOrganization
		}
	}
	if p.anonymousDB != nil {
		anon, err := p.anonymousDB.AnonymousIP(parsed)
		if err == nil {
			loc.IsTor = anon.IsTorExitNode
			loc.IsVPN = anon.IsAnonymousVPN
			loc.IsHosting = anon.IsHostingProvider
			loc.IsProxy = loc.IsProxy || anon.IsPublicProxy || anon.IsResidentialProxy
		}
	}
	return loc, nil
}

func (p *provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	closeReaders(p.countryDB, p.cityDB, p.asnDB, p.anonymousDB)
	p.countryDB, p.cityDB, p.asnDB, p.anonymousDB = nil, nil, nil, nil
	return nil
}

func openReader(path string) (*geoip2.Reader, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return geoip2.FromBytes(data)
}

func closeReaders(readers ...*geoip2.Reader) {
	for _, r := range readers {
		if r != nil {
			_ = r.Close()
		}
	}
}
