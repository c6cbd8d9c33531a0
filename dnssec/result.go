package dnssec

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

// Result represents the outcome of a signature verification ENUM(
// Valid // signature covers the RRset under the key
// Invalid // well-formed inputs, signature does not match
// Error // verification could not be performed, see the returned error
// )
type Result int
