package dnssec

import "errors"

var (
	// ErrDecode reports a malformed key or signature byte layout: truncated
	// buffers, inconsistent length fields or undecodable base64.
	ErrDecode = errors.New("malformed key or signature data")

	// ErrUnsupportedAlgorithm reports an algorithm number or algorithm
	// parameter (e.g. DSA T > 8) that cannot be checked. Callers should treat
	// it as indeterminate, not as a forged signature.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrAlgorithmMismatch reports key and signature disagreeing on shared
	// parameters.
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")

	// ErrCryptoPrimitive reports a failure of the underlying verification
	// primitive that is distinct from "signature does not match".
	ErrCryptoPrimitive = errors.New("crypto primitive failure")

	// ErrEmptyRRset reports an RRset without records.
	ErrEmptyRRset = errors.New("empty RRset")
)
