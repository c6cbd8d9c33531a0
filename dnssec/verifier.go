// Package dnssec verifies RRSIG signatures over RRsets with RSA/MD5 (1),
// DSA/SHA-1 (3) and RSA/SHA-1 (5) DNSKEYs.
//
// Example usage:
//
//	verifier := dnssec.NewVerifier(log.PrefixedLog("dnssec"))
//
//	result, err := verifier.Verify(rrset, rrsig, dnskey)
//	switch result {
//	case dnssec.ResultValid:
//		// signature covers the RRset under the key
//	case dnssec.ResultInvalid:
//		// forged or corrupted data
//	case dnssec.ResultError:
//		// err tells why the signature could not be checked,
//		// errors.Is(err, dnssec.ErrUnsupportedAlgorithm) means indeterminate
//	}
package dnssec

import (
	"encoding/base64"
	"fmt"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/0xERR0R/rrsigcheck/canonical"
)

// Verifier checks single RRSIG signatures. It keeps no state between calls
// and may be used from multiple goroutines.
type Verifier struct {
	logger *logrus.Entry
}

// NewVerifier creates a new verifier logging to logger
func NewVerifier(logger *logrus.Entry) *Verifier {
	return &Verifier{logger: logger}
}

// Verify checks whether rrsig is a signature over rrset by key.
// The returned error is not nil exactly when the result is ResultError.
// rrset is not modified.
func (v *Verifier) Verify(rrset []dns.RR, rrsig *dns.RRSIG, key *dns.DNSKEY) (Result, error) {
	if rrsig == nil || key == nil {
		return ResultError, fmt.Errorf("%w: missing RRSIG or DNSKEY", ErrDecode)
	}

	if len(rrset) == 0 {
		return ResultError, ErrEmptyRRset
	}

	if key.Algorithm != rrsig.Algorithm {
		return ResultError, fmt.Errorf("%w: DNSKEY algorithm %d, RRSIG algorithm %d",
			ErrAlgorithmMismatch, key.Algorithm, rrsig.Algorithm)
	}

	alg, err := lookupAlgorithm(rrsig.Algorithm)
	if err != nil {
		return ResultError, err
	}

	sig, err := base64.StdEncoding.DecodeString(rrsig.Signature)
	if err != nil {
		return ResultError, fmt.Errorf("%w: RRSIG signature: %v", ErrDecode, err)
	}

	data, err := canonical.SignedData(rrset, rrsig)
	if err != nil {
		return ResultError, fmt.Errorf("%w: signed data: %v", ErrDecode, err)
	}

	rawKey, err := base64.StdEncoding.DecodeString(key.PublicKey)
	if err != nil {
		return ResultError, fmt.Errorf("%w: DNSKEY public key: %v", ErrDecode, err)
	}

	result, err := alg.verify(data, sig, rawKey)

	v.logger.WithFields(logrus.Fields{
		"owner":     rrset[0].Header().Name,
		"type":      dns.TypeToString[rrsig.TypeCovered],
		"algorithm": algorithmName(rrsig.Algorithm),
		"key_tag":   rrsig.KeyTag,
		"result":    result,
	}).Debug("verified RRSIG")

	return result, err
}
