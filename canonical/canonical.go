// Package canonical builds the byte sequence an RRSIG signs: the RRSIG RDATA
// without the signature followed by the RRset in canonical form and order
// (RFC 4034 §3.1.8.1, §6).
package canonical

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/miekg/dns"
)

const (
	rrsigFixedFieldsLen = 18  // type covered .. key tag
	maxDomainNameWire   = 256 // 255 bytes plus one spare for the packer
	rrHeaderFixedLen    = 10  // type, class, TTL, RDLENGTH
)

// SetTTL forces the header TTL of every record in rrset to ttl
func SetTTL(rrset []dns.RR, ttl uint32) {
	for _, rr := range rrset {
		rr.Header().Ttl = ttl
	}
}

// Sort orders rrset canonically (ascending canonical RDATA, RFC 4034 §6.3)
// and drops duplicate records. Records with equal canonical RDATA are
// duplicates whatever their TTL, the first one is kept. The returned slice
// shares its backing array with rrset.
func Sort(rrset []dns.RR) ([]dns.RR, error) {
	records, err := packAll(rrset)
	if err != nil {
		return nil, err
	}

	records = sortRecords(records)

	result := rrset[:0]
	for _, r := range records {
		result = append(result, r.rr)
	}

	return result, nil
}

// PackRRset returns the uncompressed canonical wire form of every record in
// rrset, in the given order.
func PackRRset(rrset []dns.RR) ([]byte, error) {
	records, err := packAll(rrset)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	for _, r := range records {
		buf.Write(r.wire)
	}

	return buf.Bytes(), nil
}

// PackSignedFields returns the RRSIG RDATA up to and including the signer
// name, i.e. everything the signature covers of the RRSIG itself.
func PackSignedFields(rrsig *dns.RRSIG) ([]byte, error) {
	buf := make([]byte, rrsigFixedFieldsLen, rrsigFixedFieldsLen+maxDomainNameWire)

	binary.BigEndian.PutUint16(buf[0:], rrsig.TypeCovered)
	buf[2] = rrsig.Algorithm
	buf[3] = rrsig.Labels
	binary.BigEndian.PutUint32(buf[4:], rrsig.OrigTtl)
	binary.BigEndian.PutUint32(buf[8:], rrsig.Expiration)
	binary.BigEndian.PutUint32(buf[12:], rrsig.Inception)
	binary.BigEndian.PutUint16(buf[16:], rrsig.KeyTag)

	name := make([]byte, maxDomainNameWire)

	off, err := dns.PackDomainName(dns.CanonicalName(rrsig.SignerName), name, 0, nil, false)
	if err != nil {
		return nil, fmt.Errorf("can't pack signer name '%s': %w", rrsig.SignerName, err)
	}

	return append(buf, name[:off]...), nil
}

// SignedData reconstructs the data covered by rrsig. The records of rrset are
// copied before their TTL is set to the RRSIG original TTL, owner names are
// replaced by the wildcard owner when the RRSIG labels field says so, and the
// copies are sorted canonically. rrset itself is not modified.
func SignedData(rrset []dns.RR, rrsig *dns.RRSIG) ([]byte, error) {
	fields, err := PackSignedFields(rrsig)
	if err != nil {
		return nil, err
	}

	copies := make([]dns.RR, 0, len(rrset))
	for _, rr := range rrset {
		c := dns.Copy(rr)
		c.Header().Name = SigningOwner(rr.Header().Name, rrsig.Labels)
		copies = append(copies, c)
	}

	SetTTL(copies, rrsig.OrigTtl)

	records, err := packAll(copies)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.Write(fields)

	for _, r := range sortRecords(records) {
		buf.Write(r.wire)
	}

	return buf.Bytes(), nil
}

// SigningOwner returns the canonical owner name used when signing: the owner
// itself, or "*." plus its rightmost labels if the owner has more labels than
// the RRSIG labels field (RFC 4035 §5.3.2).
func SigningOwner(owner string, labels uint8) string {
	owner = dns.CanonicalName(owner)

	parts := dns.SplitDomainName(owner)
	if len(parts) <= int(labels) {
		return owner
	}

	return dns.Fqdn("*." + strings.Join(parts[len(parts)-int(labels):], "."))
}

type packedRecord struct {
	rr    dns.RR
	wire  []byte
	rdata []byte
}

func packAll(rrset []dns.RR) ([]packedRecord, error) {
	records := make([]packedRecord, 0, len(rrset))

	for _, rr := range rrset {
		wire, rdata, err := packRecord(rr)
		if err != nil {
			return nil, err
		}

		records = append(records, packedRecord{rr: rr, wire: wire, rdata: rdata})
	}

	return records, nil
}

// packRecord packs the canonical form of rr (RFC 4034 §6.2) without
// modifying rr
func packRecord(rr dns.RR) (wire, rdata []byte, err error) {
	c := dns.Copy(rr)
	c.Header().Name = dns.CanonicalName(c.Header().Name)
	lowerEmbeddedNames(c)

	buf := make([]byte, dns.Len(c)+1)

	off, err := dns.PackRR(c, buf, 0, nil, false)
	if err != nil {
		return nil, nil, fmt.Errorf("can't pack %s record of '%s': %w",
			dns.TypeToString[rr.Header().Rrtype], rr.Header().Name, err)
	}

	wire = buf[:off]

	_, nameEnd, err := dns.UnpackDomainName(wire, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("can't read back owner of '%s': %w", rr.Header().Name, err)
	}

	return wire, wire[nameEnd+rrHeaderFixedLen:], nil
}

// sortRecords sorts by RDATA and removes records with identical RDATA.
// All records belong to one RRset, so owner, type and class are equal.
func sortRecords(records []packedRecord) []packedRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return bytes.Compare(records[i].rdata, records[j].rdata) < 0
	})

	result := records[:0]

	for i, r := range records {
		if i > 0 && bytes.Equal(r.rdata, records[i-1].rdata) {
			continue
		}

		result = append(result, r)
	}

	return result
}

// lowerEmbeddedNames lower-cases domain names in RDATA for the types listed
// in RFC 4034 §6.2 item 3 (as updated by RFC 6840 §5.1)
func lowerEmbeddedNames(rr dns.RR) {
	switch x := rr.(type) {
	case *dns.NS:
		x.Ns = strings.ToLower(x.Ns)
	case *dns.MD:
		x.Md = strings.ToLower(x.Md)
	case *dns.MF:
		x.Mf = strings.ToLower(x.Mf)
	case *dns.CNAME:
		x.Target = strings.ToLower(x.Target)
	case *dns.SOA:
		x.Ns = strings.ToLower(x.Ns)
		x.Mbox = strings.ToLower(x.Mbox)
	case *dns.MB:
		x.Mb = strings.ToLower(x.Mb)
	case *dns.MG:
		x.Mg = strings.ToLower(x.Mg)
	case *dns.MR:
		x.Mr = strings.ToLower(x.Mr)
	case *dns.PTR:
		x.Ptr = strings.ToLower(x.Ptr)
	case *dns.MINFO:
		x.Rmail = strings.ToLower(x.Rmail)
		x.Email = strings.ToLower(x.Email)
	case *dns.MX:
		x.Mx = strings.ToLower(x.Mx)
	case *dns.RP:
		x.Mbox = strings.ToLower(x.Mbox)
		x.Txt = strings.ToLower(x.Txt)
	case *dns.AFSDB:
		x.Hostname = strings.ToLower(x.Hostname)
	case *dns.RT:
		x.Host = strings.ToLower(x.Host)
	case *dns.PX:
		x.Map822 = strings.ToLower(x.Map822)
		x.Mapx400 = strings.ToLower(x.Mapx400)
	case *dns.NAPTR:
		x.Replacement = strings.ToLower(x.Replacement)
	case *dns.KX:
		x.Exchanger = strings.ToLower(x.Exchanger)
	case *dns.SRV:
		x.Target = strings.ToLower(x.Target)
	case *dns.DNAME:
		x.Target = strings.ToLower(x.Target)
	}
}
