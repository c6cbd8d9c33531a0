package dnssec

import (
	"encoding/base64"
	"math/rand"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	. "github.com/0xERR0R/rrsigcheck/helpertest"
	"github.com/0xERR0R/rrsigcheck/log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// bit flips per input kind (signature, key, RDATA) and algorithm
const fuzzTrialsPerInput = 1000

var _ = Describe("Verifier", Ordered, func() {
	var (
		sut  *Verifier
		hook *log.MockLoggerHook

		rsaSHA1Signer *ZoneSigner
		rsaMD5Signer  *ZoneSigner
		dsaSigner     *ZoneSigner

		inception  time.Time
		expiration time.Time
	)

	BeforeAll(func() {
		rsaSHA1Signer = NewRSASigner("example.com", dns.RSASHA1)
		rsaMD5Signer = NewRSASigner("example.com", dns.RSAMD5)
		dsaSigner = NewDSASigner("example.com")
	})

	BeforeEach(func() {
		var logger *logrus.Entry

		logger, hook = log.NewMockEntry()
		sut = NewVerifier(logger)

		inception = time.Now().Add(-time.Hour)
		expiration = time.Now().Add(time.Hour)
	})

	testRRset := func() []dns.RR {
		return RRs(
			"example.com. 3600 IN MX 20 mail2.example.com.",
			"example.com. 3600 IN MX 10 mail.example.com.",
		)
	}

	DescribeTable("should verify signatures of a known-good signer",
		func(signer func() *ZoneSigner) {
			s := signer()
			rrset := testRRset()
			rrsig := s.Sign(rrset, inception, expiration)

			res, err := sut.Verify(rrset, rrsig, s.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultValid))
		},
		Entry("RSA/MD5", func() *ZoneSigner { return rsaMD5Signer }),
		Entry("RSA/SHA-1", func() *ZoneSigner { return rsaSHA1Signer }),
		Entry("DSA/SHA-1", func() *ZoneSigner { return dsaSigner }),
	)

	It("should verify RRSIGs created by miekg/dns", func() {
		rrset := testRRset()
		rrsig := rsaSHA1Signer.NewRRSIG(rrset, inception, expiration)

		Expect(rrsig.Sign(rsaSHA1Signer.RSAPrivateKey(), rrset)).Should(Succeed())

		res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
		Expect(err).Should(Succeed())
		Expect(res).Should(Equal(ResultValid))
	})

	It("should produce RRSIGs miekg/dns accepts", func() {
		rrset := testRRset()
		rrsig := rsaSHA1Signer.Sign(rrset, inception, expiration)

		Expect(rrsig.Verify(rsaSHA1Signer.Key, rrset)).Should(Succeed())
	})

	It("should log the outcome at debug level", func() {
		rrset := testRRset()
		rrsig := rsaSHA1Signer.Sign(rrset, inception, expiration)

		_, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
		Expect(err).Should(Succeed())

		Expect(hook.ContainsMessage("verified RRSIG")).Should(BeTrue())
		Expect(hook.CountAt(logrus.DebugLevel)).Should(Equal(1))
	})

	When("records differ from the signed data only in canonical aspects", func() {
		It("should ignore the record TTL", func() {
			rrset := RRs("www.example.com. 3600 IN A 192.0.2.1")
			rrsig := rsaSHA1Signer.Sign(rrset, inception, expiration)
			Expect(rrsig.OrigTtl).Should(Equal(uint32(3600)))

			rrset[0].Header().Ttl = 300

			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultValid))

			By("leaving the RRset untouched", func() {
				Expect(rrset[0].Header().Ttl).Should(Equal(uint32(300)))
			})
		})

		It("should ignore record order", func() {
			rrset := testRRset()
			rrsig := rsaSHA1Signer.Sign(rrset, inception, expiration)

			rrset[0], rrset[1] = rrset[1], rrset[0]

			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultValid))
		})

		It("should ignore the case of owner and embedded names", func() {
			rrset := testRRset()
			rrsig := rsaSHA1Signer.Sign(rrset, inception, expiration)

			upper := RRs(
				"EXAMPLE.com. 3600 IN MX 10 MAIL.Example.COM.",
				"Example.COM. 3600 IN MX 20 mail2.EXAMPLE.com.",
			)

			res, err := sut.Verify(upper, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultValid))
		})

		It("should verify wildcard expansions", func() {
			signed := RRs("*.example.com. 3600 IN TXT \"wildcard\"")
			rrsig := rsaSHA1Signer.Sign(signed, inception, expiration)
			Expect(rrsig.Labels).Should(Equal(uint8(2)))

			expanded := RRs("foo.bar.example.com. 3600 IN TXT \"wildcard\"")

			res, err := sut.Verify(expanded, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultValid))
		})
	})

	Describe("A record signed with RSA/SHA-1", func() {
		var (
			rrset []dns.RR
			rrsig *dns.RRSIG
		)

		BeforeEach(func() {
			rrset = RRs("www.example.com. 3600 IN A 192.0.2.1")
			rrsig = rsaSHA1Signer.Sign(rrset, inception, expiration)
		})

		It("should be valid", func() {
			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultValid))
		})

		It("should never be valid with a truncated signature", func() {
			raw, err := base64.StdEncoding.DecodeString(rrsig.Signature)
			Expect(err).Should(Succeed())

			rrsig.Signature = base64.StdEncoding.EncodeToString(raw[:len(raw)-1])

			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(res).ShouldNot(Equal(ResultValid))

			if res == ResultError {
				Expect(err).Should(MatchError(ErrDecode))
			} else {
				Expect(err).Should(Succeed())
			}
		})

		It("should be invalid for modified data", func() {
			rrset[0].(*dns.A).A[3] = 2

			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultInvalid))
		})

		It("should be invalid for a modified RRSIG field", func() {
			rrsig.OrigTtl = 7200

			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultInvalid))
		})

		It("should be invalid under another key", func() {
			other := NewRSASigner("example.com", dns.RSASHA1)

			res, err := sut.Verify(rrset, rrsig, other.Key)
			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ResultInvalid))
		})

		It("should return the same result on repeated calls", func() {
			first, firstErr := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)

			for i := 0; i < 5; i++ {
				res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
				Expect(res).Should(Equal(first))
				Expect(err).Should(Equal(firstErr))
			}
		})

		It("should verify concurrently", func() {
			var wg sync.WaitGroup

			results := make([]Result, 8)

			for i := range results {
				wg.Add(1)

				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()

					results[i], _ = sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
				}(i)
			}

			wg.Wait()

			Expect(results).Should(HaveEach(ResultValid))
		})
	})

	Describe("input errors", func() {
		var (
			rrset []dns.RR
			rrsig *dns.RRSIG
		)

		BeforeEach(func() {
			rrset = testRRset()
			rrsig = rsaSHA1Signer.Sign(rrset, inception, expiration)
		})

		It("should reject an empty RRset", func() {
			res, err := sut.Verify(nil, rrsig, rsaSHA1Signer.Key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrEmptyRRset))
		})

		It("should reject a missing RRSIG or DNSKEY", func() {
			res, err := sut.Verify(rrset, nil, rsaSHA1Signer.Key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrDecode))

			res, err = sut.Verify(rrset, rrsig, nil)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrDecode))
		})

		It("should reject a DNSKEY of another algorithm", func() {
			res, err := sut.Verify(rrset, rrsig, rsaMD5Signer.Key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrAlgorithmMismatch))
			Expect(hook.Messages).Should(BeEmpty())
		})

		It("should report unsupported algorithms", func() {
			key := NewDNSKEY("example.com", dns.RSASHA256, []byte{0x01})
			rrsig.Algorithm = dns.RSASHA256

			res, err := sut.Verify(rrset, rrsig, key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrUnsupportedAlgorithm))
		})

		It("should reject an undecodable signature", func() {
			rrsig.Signature = "not base64!"

			res, err := sut.Verify(rrset, rrsig, rsaSHA1Signer.Key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrDecode))
		})

		It("should reject an undecodable public key", func() {
			key := dns.Copy(rsaSHA1Signer.Key).(*dns.DNSKEY)
			key.PublicKey = "%%%"

			res, err := sut.Verify(rrset, rrsig, key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrDecode))
		})

		It("should reject a DSA signature with another T than the key", func() {
			dsaRRsig := dsaSigner.Sign(rrset, inception, expiration)

			raw, err := base64.StdEncoding.DecodeString(dsaRRsig.Signature)
			Expect(err).Should(Succeed())

			raw[0] = 0
			dsaRRsig.Signature = base64.StdEncoding.EncodeToString(raw)

			res, err := sut.Verify(rrset, dsaRRsig, dsaSigner.Key)
			Expect(res).Should(Equal(ResultError))
			Expect(err).Should(MatchError(ErrAlgorithmMismatch))
		})
	})

	Describe("bit flips", func() {
		var rnd *rand.Rand

		BeforeEach(func() {
			rnd = rand.New(rand.NewSource(42)) //nolint:gosec
		})

		expectNeverValid := func(res Result, err error) {
			Expect(res).ShouldNot(Equal(ResultValid))

			if res == ResultError {
				Expect(err).Should(HaveOccurred())
			}
		}

		flip := func(b []byte) []byte {
			c := append([]byte(nil), b...)
			bit := rnd.Intn(len(c) * 8)
			c[bit/8] ^= 1 << (bit % 8)

			return c
		}

		flipRData := func(rr dns.RR) (dns.RR, bool) {
			buf := make([]byte, dns.Len(rr)+1)
			off, err := dns.PackRR(rr, buf, 0, nil, false)
			Expect(err).Should(Succeed())

			rdataStart := off - int(rr.Header().Rdlength)
			wire := buf[:off]

			bit := rnd.Intn(int(rr.Header().Rdlength) * 8)
			wire[rdataStart+bit/8] ^= 1 << (bit % 8)

			flipped, _, err := dns.UnpackRR(wire, 0)

			return flipped, err == nil
		}

		DescribeTable("should never accept modified input",
			func(signer func() *ZoneSigner) {
				s := signer()
				rrset := RRs(
					"www.example.com. 3600 IN A 192.0.2.1",
					"www.example.com. 3600 IN A 192.0.2.2",
				)
				rrsig := s.Sign(rrset, inception, expiration)

				rawSig, err := base64.StdEncoding.DecodeString(rrsig.Signature)
				Expect(err).Should(Succeed())

				rawKey, err := base64.StdEncoding.DecodeString(s.Key.PublicKey)
				Expect(err).Should(Succeed())

				for i := 0; i < 3*fuzzTrialsPerInput; i++ {
					switch i % 3 {
					case 0:
						modified := dns.Copy(rrsig).(*dns.RRSIG)
						modified.Signature = base64.StdEncoding.EncodeToString(flip(rawSig))

						expectNeverValid(sut.Verify(rrset, modified, s.Key))
					case 1:
						key := dns.Copy(s.Key).(*dns.DNSKEY)
						key.PublicKey = base64.StdEncoding.EncodeToString(flip(rawKey))

						expectNeverValid(sut.Verify(rrset, rrsig, key))
					case 2:
						idx := rnd.Intn(len(rrset))

						flipped, ok := flipRData(rrset[idx])
						if !ok {
							continue
						}

						modified := []dns.RR{rrset[0], rrset[1]}
						modified[idx] = flipped

						if dns.IsDuplicate(modified[0], modified[1]) {
							continue
						}

						expectNeverValid(sut.Verify(modified, rrsig, s.Key))
					}
				}
			},
			Entry("RSA/MD5", func() *ZoneSigner { return rsaMD5Signer }),
			Entry("RSA/SHA-1", func() *ZoneSigner { return rsaSHA1Signer }),
			Entry("DSA/SHA-1", func() *ZoneSigner { return dsaSigner }),
		)
	})
})
