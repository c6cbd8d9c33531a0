package dnssec

import (
	"crypto"
	"fmt"

	"github.com/miekg/dns"
)

// algorithm decodes key and signature blobs of one DNSSEC algorithm number
// and checks the signature over the signed data.
type algorithm interface {
	// verify checks sig over data under key. sig and key are the raw
	// (base64 decoded) RRSIG signature and DNSKEY public key fields.
	verify(data, sig, key []byte) (Result, error)
}

// algorithms is the closed set of supported DNSSEC algorithms.
// A new algorithm only needs an entry here.
//
//nolint:gochecknoglobals
var algorithms = map[uint8]algorithm{
	dns.RSAMD5:  rsaAlgorithm{hash: crypto.MD5},
	dns.DSA:     dsaAlgorithm{},
	dns.RSASHA1: rsaAlgorithm{hash: crypto.SHA1},
}

func lookupAlgorithm(alg uint8) (algorithm, error) {
	a, ok := algorithms[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%d)", ErrUnsupportedAlgorithm, algorithmName(alg), alg)
	}

	return a, nil
}

// IsSupportedAlgorithm checks if the DNSSEC algorithm can be verified
func IsSupportedAlgorithm(alg uint8) bool {
	_, ok := algorithms[alg]

	return ok
}

func algorithmName(alg uint8) string {
	if name, ok := dns.AlgorithmToString[alg]; ok {
		return name
	}

	return "unknown"
}
