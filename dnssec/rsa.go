package dnssec

// This file contains RSA key decoding per RFC 3110 and PKCS#1 v1.5 verification
// for RSA/MD5 and RSA/SHA-1.

import (
	"crypto"
	_ "crypto/md5" //nolint:gosec // registers crypto.MD5 for RSA/MD5
	"crypto/rsa"
	_ "crypto/sha1" //nolint:gosec // registers crypto.SHA1 for RSA/SHA-1
	"errors"
	"fmt"
	"math"
	"math/big"
)

// RSAPublicKey is an RSA DNSKEY public key in RFC 3110 layout
type RSAPublicKey struct {
	Exponent *big.Int
	Modulus  *big.Int
}

// DecodeRSAKey parses a raw RSA public key. A leading zero byte announces a
// 2 byte exponent length, otherwise the first byte is the exponent length.
// The exponent follows, all remaining bytes are the modulus.
func DecodeRSAKey(raw []byte) (*RSAPublicKey, error) {
	r := newByteReader(raw)

	first, err := r.readUint8()
	if err != nil {
		return nil, fmt.Errorf("RSA exponent length: %w", err)
	}

	expLen := int(first)

	if first == 0 {
		extLen, err := r.readUint16()
		if err != nil {
			return nil, fmt.Errorf("RSA extended exponent length: %w", err)
		}

		expLen = int(extLen)
	}

	exponent, err := r.readBigInt(expLen)
	if err != nil {
		return nil, fmt.Errorf("RSA exponent: %w", err)
	}

	modulus := r.readRest()
	if len(modulus) == 0 {
		return nil, fmt.Errorf("%w: RSA modulus length is zero (key has %d bytes, exponent %d bytes)",
			ErrDecode, len(raw), expLen)
	}

	return &RSAPublicKey{
		Exponent: exponent,
		Modulus:  new(big.Int).SetBytes(modulus),
	}, nil
}

type rsaAlgorithm struct {
	hash crypto.Hash
}

func (a rsaAlgorithm) verify(data, sig, rawKey []byte) (Result, error) {
	key, err := DecodeRSAKey(rawKey)
	if err != nil {
		return ResultError, err
	}

	h := a.hash.New()
	h.Write(data)

	return verifyRSA(key, a.hash, h.Sum(nil), sig)
}

// verifyRSA checks a PKCS#1 v1.5 signature over digest. The signature blob is
// passed through unmodified.
func verifyRSA(key *RSAPublicKey, hash crypto.Hash, digest, sig []byte) (Result, error) {
	if !key.Exponent.IsInt64() || key.Exponent.Int64() > math.MaxInt32 {
		return ResultError, fmt.Errorf("%w: RSA exponent of %d bits is too large",
			ErrCryptoPrimitive, key.Exponent.BitLen())
	}

	pub := &rsa.PublicKey{
		N: key.Modulus,
		E: int(key.Exponent.Int64()),
	}

	err := rsa.VerifyPKCS1v15(pub, hash, digest, sig)

	switch {
	case err == nil:
		return ResultValid, nil
	case errors.Is(err, rsa.ErrVerification):
		return ResultInvalid, nil
	default:
		return ResultError, fmt.Errorf("%w: %v", ErrCryptoPrimitive, err)
	}
}
