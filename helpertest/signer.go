package helpertest

import (
	"crypto"
	"crypto/dsa"   //nolint:staticcheck
	_ "crypto/md5" //nolint:gosec
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/onsi/gomega"

	"github.com/0xERR0R/rrsigcheck/canonical"
)

const (
	// RSAKeyBits is the modulus size of generated test keys
	RSAKeyBits = 1024

	dsaQLength    = 20
	dsaBaseLength = 64
	dsaLengthPerT = 8
)

//nolint:gochecknoglobals
var (
	dsaParams     dsa.Parameters
	dsaParamsOnce sync.Once
)

// ZoneSigner signs RRsets with a freshly generated zone key
type ZoneSigner struct {
	Zone string
	Key  *dns.DNSKEY

	rsaKey *rsa.PrivateKey
	dsaKey *dsa.PrivateKey
}

// NewRSASigner creates a signer for alg (RSAMD5 or RSASHA1) with a new
// 1024 bit RSA key
func NewRSASigner(zone string, alg uint8) *ZoneSigner {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	gomega.Expect(err).Should(gomega.Succeed())

	return &ZoneSigner{
		Zone:   dns.Fqdn(zone),
		Key:    NewDNSKEY(zone, alg, EncodeRSAPublicKey(big.NewInt(int64(priv.E)), priv.N)),
		rsaKey: priv,
	}
}

// NewDSASigner creates a DSA signer. The domain parameters (L=1024, N=160,
// which gives T=8) are generated once per test process.
func NewDSASigner(zone string) *ZoneSigner {
	dsaParamsOnce.Do(func() {
		err := dsa.GenerateParameters(&dsaParams, rand.Reader, dsa.L1024N160)
		gomega.Expect(err).Should(gomega.Succeed())
	})

	priv := &dsa.PrivateKey{PublicKey: dsa.PublicKey{Parameters: dsaParams}}
	err := dsa.GenerateKey(priv, rand.Reader)
	gomega.Expect(err).Should(gomega.Succeed())

	return &ZoneSigner{
		Zone:   dns.Fqdn(zone),
		Key:    NewDNSKEY(zone, dns.DSA, EncodeDSAPublicKey(&priv.PublicKey)),
		dsaKey: priv,
	}
}

// RSAPrivateKey returns the private key of an RSA signer
func (s *ZoneSigner) RSAPrivateKey() *rsa.PrivateKey {
	return s.rsaKey
}

// NewDNSKEY creates a zone key with raw public key material
func NewDNSKEY(zone string, alg uint8, publicKey []byte) *dns.DNSKEY {
	return &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(zone),
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    3600,
		},
		Flags:     dns.ZONE,
		Protocol:  3,
		Algorithm: alg,
		PublicKey: base64.StdEncoding.EncodeToString(publicKey),
	}
}

// Sign creates an RRSIG over rrset valid between inception and expiration.
// The original TTL is taken from the first record.
func (s *ZoneSigner) Sign(rrset []dns.RR, inception, expiration time.Time) *dns.RRSIG {
	rrsig := s.NewRRSIG(rrset, inception, expiration)

	data, err := canonical.SignedData(rrset, rrsig)
	gomega.Expect(err).Should(gomega.Succeed())

	rrsig.Signature = base64.StdEncoding.EncodeToString(s.signData(data))

	return rrsig
}

// NewRRSIG creates the unsigned RRSIG for rrset
func (s *ZoneSigner) NewRRSIG(rrset []dns.RR, inception, expiration time.Time) *dns.RRSIG {
	hdr := rrset[0].Header()

	return &dns.RRSIG{
		Hdr: dns.RR_Header{
			Name:   hdr.Name,
			Rrtype: dns.TypeRRSIG,
			Class:  hdr.Class,
			Ttl:    hdr.Ttl,
		},
		TypeCovered: hdr.Rrtype,
		Algorithm:   s.Key.Algorithm,
		Labels:      signatureLabels(hdr.Name),
		OrigTtl:     hdr.Ttl,
		Expiration:  uint32(expiration.Unix()),
		Inception:   uint32(inception.Unix()),
		KeyTag:      s.Key.KeyTag(),
		SignerName:  s.Zone,
	}
}

func (s *ZoneSigner) signData(data []byte) []byte {
	switch s.Key.Algorithm {
	case dns.DSA:
		digest := sha1.Sum(data) //nolint:gosec

		r, ss, err := dsa.Sign(rand.Reader, s.dsaKey, digest[:])
		gomega.Expect(err).Should(gomega.Succeed())

		sig := make([]byte, 1+2*dsaQLength)
		sig[0] = dsaT(s.dsaKey.P)
		r.FillBytes(sig[1 : 1+dsaQLength])
		ss.FillBytes(sig[1+dsaQLength:])

		return sig
	default:
		hash := crypto.SHA1
		if s.Key.Algorithm == dns.RSAMD5 {
			hash = crypto.MD5
		}

		h := hash.New()
		h.Write(data)

		sig, err := rsa.SignPKCS1v15(rand.Reader, s.rsaKey, hash, h.Sum(nil))
		gomega.Expect(err).Should(gomega.Succeed())

		return sig
	}
}

// EncodeRSAPublicKey encodes an RSA public key as DNSKEY data (RFC 3110)
func EncodeRSAPublicKey(exponent, modulus *big.Int) []byte {
	e := exponent.Bytes()

	var buf []byte
	if len(e) > 255 { //nolint:gomnd
		buf = []byte{0, byte(len(e) >> 8), byte(len(e))} //nolint:gomnd
	} else {
		buf = []byte{byte(len(e))}
	}

	buf = append(buf, e...)

	return append(buf, modulus.Bytes()...)
}

// EncodeDSAPublicKey encodes a DSA public key as DNSKEY data (RFC 2536)
func EncodeDSAPublicKey(pub *dsa.PublicKey) []byte {
	t := dsaT(pub.P)
	numberLength := dsaBaseLength + int(t)*dsaLengthPerT

	buf := make([]byte, 1+dsaQLength+3*numberLength)
	buf[0] = t
	pub.Q.FillBytes(buf[1 : 1+dsaQLength])

	off := 1 + dsaQLength
	for _, n := range []*big.Int{pub.P, pub.G, pub.Y} {
		n.FillBytes(buf[off : off+numberLength])
		off += numberLength
	}

	return buf
}

func dsaT(p *big.Int) uint8 {
	return uint8((len(p.Bytes()) - dsaBaseLength) / dsaLengthPerT)
}

// signatureLabels counts the labels of owner, a leading wildcard not included
func signatureLabels(owner string) uint8 {
	labels := dns.CountLabel(owner)
	if strings.HasPrefix(owner, "*.") {
		labels--
	}

	return uint8(labels)
}

// RR parses a record in presentation format
func RR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	gomega.Expect(err).Should(gomega.Succeed())

	return rr
}

// RRs parses records in presentation format
func RRs(lines ...string) []dns.RR {
	result := make([]dns.RR, 0, len(lines))
	for _, l := range lines {
		result = append(result, RR(l))
	}

	return result
}

// SignAll groups records into RRsets and returns the records followed by an
// RRSIG for every RRset that sign accepts. A nil sign signs everything.
func (s *ZoneSigner) SignAll(records []dns.RR, inception, expiration time.Time, sign func(dns.RR) bool) []dns.RR {
	type key struct {
		owner  string
		rrtype uint16
	}

	var order []key

	rrsets := make(map[key][]dns.RR)

	for _, rr := range records {
		k := key{owner: dns.CanonicalName(rr.Header().Name), rrtype: rr.Header().Rrtype}
		if _, ok := rrsets[k]; !ok {
			order = append(order, k)
		}

		rrsets[k] = append(rrsets[k], rr)
	}

	result := append([]dns.RR(nil), records...)

	for _, k := range order {
		rrset := rrsets[k]
		if sign != nil && !sign(rrset[0]) {
			continue
		}

		result = append(result, s.Sign(rrset, inception, expiration))
	}

	return result
}

// ZoneFile renders records in master file format
func ZoneFile(records []dns.RR) string {
	var sb strings.Builder

	for _, rr := range records {
		sb.WriteString(rr.String())
		sb.WriteString("\n")
	}

	return sb.String()
}
