package dnssec

// This file contains DSA key and signature decoding per RFC 2536.

import (
	"crypto/dsa"  //nolint:staticcheck // DNSSEC algorithm 3 is DSA/SHA-1
	"crypto/sha1" //nolint:gosec
	"fmt"
	"math/big"
)

const (
	dsaMaxT           = 8  // largest key size parameter defined by RFC 2536
	dsaQLength        = 20 // Q, R and S are 160 bit values
	dsaBaseLength     = 64 // P, G and Y length for T=0
	dsaLengthPerT     = 8  // P, G and Y grow by 8 bytes per T
	dsaSignatureBytes = 1 + 2*dsaQLength
)

// DSAPublicKey is a DSA DNSKEY public key in RFC 2536 layout
type DSAPublicKey struct {
	T uint8
	Q *big.Int
	P *big.Int
	G *big.Int
	Y *big.Int
}

// DSASignature is a DSA RRSIG signature in RFC 2536 layout
type DSASignature struct {
	T uint8
	R *big.Int
	S *big.Int
}

// DSANumberLength returns the byte length of P, G and Y for key size parameter t
func DSANumberLength(t uint8) int {
	return dsaBaseLength + int(t)*dsaLengthPerT
}

// DecodeDSAKey parses a raw DSA public key: T, Q (20 bytes), then P, G and Y
// of 64 + T*8 bytes each.
func DecodeDSAKey(raw []byte) (*DSAPublicKey, error) {
	r := newByteReader(raw)

	t, err := r.readUint8()
	if err != nil {
		return nil, fmt.Errorf("DSA key T: %w", err)
	}

	if t > dsaMaxT {
		return nil, fmt.Errorf("%w: DSA key with T=%d", ErrUnsupportedAlgorithm, t)
	}

	numberLength := DSANumberLength(t)
	key := &DSAPublicKey{T: t}

	if key.Q, err = r.readBigInt(dsaQLength); err != nil {
		return nil, fmt.Errorf("DSA key Q: %w", err)
	}

	if key.P, err = r.readBigInt(numberLength); err != nil {
		return nil, fmt.Errorf("DSA key P: %w", err)
	}

	if key.G, err = r.readBigInt(numberLength); err != nil {
		return nil, fmt.Errorf("DSA key G: %w", err)
	}

	if key.Y, err = r.readBigInt(numberLength); err != nil {
		return nil, fmt.Errorf("DSA key Y: %w", err)
	}

	if err := r.expectEOF(); err != nil {
		return nil, fmt.Errorf("DSA key: %w", err)
	}

	return key, nil
}

// DecodeDSASignature parses a raw DSA signature: T, R (20 bytes), S (20 bytes).
func DecodeDSASignature(raw []byte) (*DSASignature, error) {
	if len(raw) != dsaSignatureBytes {
		return nil, fmt.Errorf("%w: DSA signature has %d bytes, expected %d", ErrDecode, len(raw), dsaSignatureBytes)
	}

	r := newByteReader(raw)
	sig := &DSASignature{}

	// lengths are checked above, reads cannot fail
	sig.T, _ = r.readUint8()
	sig.R, _ = r.readBigInt(dsaQLength)
	sig.S, _ = r.readBigInt(dsaQLength)

	return sig, nil
}

type dsaAlgorithm struct{}

func (dsaAlgorithm) verify(data, rawSig, rawKey []byte) (Result, error) {
	key, err := DecodeDSAKey(rawKey)
	if err != nil {
		return ResultError, err
	}

	sig, err := DecodeDSASignature(rawSig)
	if err != nil {
		return ResultError, err
	}

	if sig.T != key.T {
		return ResultError, fmt.Errorf("%w: DSA key has T=%d, signature has T=%d", ErrAlgorithmMismatch, key.T, sig.T)
	}

	digest := sha1.Sum(data) //nolint:gosec

	return verifyDSA(key, sig, digest[:])
}

// verifyDSA checks the decoded signature against digest. Degenerate key
// parameters are reported as ErrCryptoPrimitive, a signature that does not
// match as ResultInvalid.
func verifyDSA(key *DSAPublicKey, sig *DSASignature, digest []byte) (Result, error) {
	if err := checkDSAParameters(key); err != nil {
		return ResultError, err
	}

	// FIPS 186: 0 < r < q and 0 < s < q, otherwise the signature is rejected
	if sig.R.Sign() <= 0 || sig.R.Cmp(key.Q) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(key.Q) >= 0 {
		return ResultInvalid, nil
	}

	if new(big.Int).ModInverse(sig.S, key.Q) == nil {
		return ResultError, fmt.Errorf("%w: DSA S is not invertible modulo Q", ErrCryptoPrimitive)
	}

	pub := &dsa.PublicKey{
		Parameters: dsa.Parameters{P: key.P, Q: key.Q, G: key.G},
		Y:          key.Y,
	}

	if dsa.Verify(pub, digest, sig.R, sig.S) {
		return ResultValid, nil
	}

	return ResultInvalid, nil
}

func checkDSAParameters(key *DSAPublicKey) error {
	one := big.NewInt(1)

	switch {
	case key.Q.Sign() <= 0:
		return fmt.Errorf("%w: DSA Q is zero", ErrCryptoPrimitive)
	case key.P.Cmp(one) <= 0:
		return fmt.Errorf("%w: DSA P is not greater than one", ErrCryptoPrimitive)
	case key.G.Cmp(one) <= 0 || key.G.Cmp(key.P) >= 0:
		return fmt.Errorf("%w: DSA G out of range", ErrCryptoPrimitive)
	case key.Y.Sign() <= 0 || key.Y.Cmp(key.P) >= 0:
		return fmt.Errorf("%w: DSA Y out of range", ErrCryptoPrimitive)
	}

	return nil
}
