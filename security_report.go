package jwtgate

import (
	"fmt"
	"strings"

	"github.com/MrEthical07/jwtgate/jwt"
)

// SecurityReport summarises the security-relevant configuration of a Gate.
// It never contains the secret or key material.
type SecurityReport struct {
	Decoder             string
	Algorithms          []string
	CredentialsRequired bool
	WhitelistPatterns   int
	CustomTokenGetter   bool
	RevocationEnabled   bool
	TokenStored         bool
	AuditEnabled        bool
	MetricsEnabled      bool
	// Warnings lists configuration that is valid but probably unintended.
	Warnings []string
}

const minHMACSecretLen = 32

// SecurityReport returns a report for g.
func (g *Gate) SecurityReport() SecurityReport {
	if g == nil {
		return SecurityReport{}
	}

	r := SecurityReport{
		Decoder:             fmt.Sprintf("%T", g.config.Decoder),
		Algorithms:          cloneStrings(g.config.Algorithms),
		CredentialsRequired: g.config.CredentialsRequired,
		WhitelistPatterns:   g.whitelist.Len(),
		CustomTokenGetter:   g.config.TokenGetter != nil,
		RevocationEnabled:   g.config.RevocationChecker != nil,
		TokenStored:         g.config.StoreTokenProperty != "",
		AuditEnabled:        g.audit != nil,
		MetricsEnabled:      g.metrics.Enabled(),
	}

	if len(g.config.Algorithms) == 0 {
		r.Warnings = append(r.Warnings, "no algorithm restriction; any algorithm the decoder supports is accepted")
	}
	if _, ok := g.config.Decoder.(*jwt.Decoder); ok && usesHMAC(g.config.Algorithms) &&
		len(g.config.SecretOrPublicKey) < minHMACSecretLen {
		r.Warnings = append(r.Warnings, fmt.Sprintf("hmac secret shorter than %d bytes", minHMACSecretLen))
	}
	for _, p := range g.config.Whitelist {
		if !strings.HasPrefix(p, "^") {
			r.Warnings = append(r.Warnings, fmt.Sprintf("whitelist pattern %q is not anchored and matches anywhere in the path", p))
		}
	}
	if !g.config.CredentialsRequired {
		r.Warnings = append(r.Warnings, "credentials optional; handlers must check for identity themselves")
	}
	return r
}

func usesHMAC(algs []string) bool {
	if len(algs) == 0 {
		return true
	}
	for _, a := range algs {
		if strings.HasPrefix(a, "HS") {
			return true
		}
	}
	return false
}
