package trie

import "strings"

// SplitFunc splits the top most label off a key
type SplitFunc func(string) (label, rest string)

// SplitTLD splits domain names case-insensitively:
// www.Example.com. -> ("com", "www.example")
func SplitTLD(domain string) (label, rest string) {
	domain = strings.ToLower(strings.TrimRight(domain, "."))

	idx := strings.LastIndexByte(domain, '.')
	if idx == -1 {
		return domain, ""
	}

	return domain[idx+1:], domain[:idx]
}
