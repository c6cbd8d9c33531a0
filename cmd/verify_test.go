package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"

	. "github.com/0xERR0R/rrsigcheck/helpertest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Verify command", Ordered, func() {
	var (
		signer *ZoneSigner
		tmpDir *TmpFolder
		out    *bytes.Buffer

		inception  time.Time
		expiration time.Time
	)

	BeforeAll(func() {
		signer = NewRSASigner("example.com", dns.RSASHA1)
	})

	BeforeEach(func() {
		tmpDir = NewTmpFolder("verify")
		Expect(tmpDir.Error).Should(Succeed())
		DeferCleanup(tmpDir.Clean)

		out = new(bytes.Buffer)

		inception = time.Now().Add(-time.Hour)
		expiration = time.Now().Add(time.Hour)
	})

	zoneFile := func(records ...string) *TmpFile {
		rrs := append(RRs(records...), signer.Key)
		zone := ZoneFile(signer.SignAll(rrs, inception, expiration, nil))

		f := tmpDir.CreateStringFile("db.example.com", zone)
		Expect(f.Error).Should(Succeed())

		return f
	}

	execute := func(args ...string) error {
		c := NewRootCommand()
		c.SetOut(out)
		c.SetErr(io.Discard)
		c.SetArgs(append([]string{"verify", "--zone", "example.com."}, args...))

		return c.Execute()
	}

	When("all signatures are valid", func() {
		It("should print a line per signature and succeed", func() {
			f := zoneFile(
				"example.com. 3600 IN NS ns1.example.com.",
				"www.example.com. 3600 IN A 192.0.2.80",
			)

			Expect(execute("--file", f.Path)).Should(Succeed())

			Expect(out.String()).Should(ContainSubstring("[ OK  ] www.example.com. A (RSASHA1, key"))
			Expect(out.String()).Should(ContainSubstring("3 valid, 0 invalid, 0 errors, 0 unsigned"))
		})

		It("should read the zone from stdin", func() {
			f := zoneFile("www.example.com. 3600 IN A 192.0.2.80")

			zone, err := os.ReadFile(f.Path)
			Expect(err).Should(Succeed())

			c := NewRootCommand()
			c.SetOut(out)
			c.SetIn(bytes.NewReader(zone))
			c.SetArgs([]string{"verify", "--zone", "example.com.", "--file", "-"})

			Expect(c.Execute()).Should(Succeed())
			Expect(out.String()).Should(ContainSubstring("2 valid"))
		})

		It("should write metrics", func() {
			f := zoneFile("www.example.com. 3600 IN A 192.0.2.80")
			metricsFile := tmpDir.JoinPath("rrsigcheck.prom")

			Expect(execute("--file", f.Path, "--metrics-file", metricsFile)).Should(Succeed())

			content, err := os.ReadFile(metricsFile)
			Expect(err).Should(Succeed())
			Expect(string(content)).Should(ContainSubstring("rrsigcheck_verifications_total"))
			Expect(string(content)).Should(ContainSubstring("rrsigcheck_zone_check_duration_seconds"))
		})

		It("should use the metrics file of the configuration", func() {
			f := zoneFile("www.example.com. 3600 IN A 192.0.2.80")
			metricsFile := tmpDir.JoinPath("from-config.prom")

			cfgFile := tmpDir.CreateStringFile("config.yml",
				"verify:",
				"  metricsFile: "+metricsFile)
			Expect(cfgFile.Error).Should(Succeed())

			Expect(execute("--file", f.Path, "--config", cfgFile.Path)).Should(Succeed())
			Expect(metricsFile).Should(BeAnExistingFile())
		})
	})

	When("a signature is invalid", func() {
		It("should print the failure and return an error", func() {
			f := zoneFile("www.example.com. 3600 IN A 192.0.2.80")

			zone, err := os.ReadFile(f.Path)
			Expect(err).Should(Succeed())

			tampered := tmpDir.CreateStringFile("tampered", strings.Replace(string(zone), "192.0.2.80", "192.0.2.81", 1))
			Expect(tampered.Error).Should(Succeed())

			err = execute("--file", tampered.Path)
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("failed verification"))

			Expect(out.String()).Should(ContainSubstring("[FAIL ] www.example.com. A"))
		})
	})

	When("the signatures are checked at a later time", func() {
		It("should report expired signatures", func() {
			f := zoneFile("www.example.com. 3600 IN A 192.0.2.80")
			later := expiration.Add(24 * time.Hour).UTC().Format(time.RFC3339)

			Expect(execute("--file", f.Path, "--now", later)).Should(HaveOccurred())
			Expect(out.String()).Should(ContainSubstring("[ERROR] www.example.com. A"))
			Expect(out.String()).Should(ContainSubstring("signature expired"))
		})

		It("should reject a malformed time", func() {
			f := zoneFile("www.example.com. 3600 IN A 192.0.2.80")

			err := execute("--file", f.Path, "--now", "yesterday")
			Expect(err).Should(MatchError(ContainSubstring("invalid --now value")))
		})
	})

	When("the zone file does not exist", func() {
		It("should return an error", func() {
			err := execute("--file", tmpDir.JoinPath("missing"))
			Expect(err).Should(MatchError(ContainSubstring("does not exist")))
		})
	})

	When("required flags are missing", func() {
		It("should return an error", func() {
			c := NewRootCommand()
			c.SetOut(io.Discard)
			c.SetErr(io.Discard)
			c.SetArgs([]string{"verify"})

			Expect(c.Execute()).Should(HaveOccurred())
		})
	})
})
