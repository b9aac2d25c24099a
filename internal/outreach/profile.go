package outreach

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// profile mirrors the fields of an upstream person payload that matter for
// address extraction and prompt text.
type profile struct {
	BusinessEmail    []string   `json:"business_email"`
	CurrentEmployers []employer `json:"current_employers"`
	PastEmployers    []employer `json:"past_employers"`
}

type employer struct {
	EmployerName   string                 `json:"employer_name"`
	WebsiteDomains []string               `json:"employer_company_website_domain"`
	BusinessEmails map[string]emailDetail `json:"business_emails"`
}

type emailDetail struct {
	VerificationStatus string `json:"verification_status"`
}

// ExtractEmail finds a deliverable address in a raw profile payload. Direct
// business emails win over employer-level verified addresses; a plain-text
// regex scan is the fallback when the payload is not JSON.
func ExtractEmail(rawProfile string) string {
	p, ok := decodeProfile(rawProfile)
	if !ok {
		if m := emailPattern.FindString(rawProfile); m != "" {
			return m
		}
		return ""
	}

	if len(p.BusinessEmail) > 0 {
		return p.BusinessEmail[0]
	}
	if addr := verifiedEmployerEmail(p.CurrentEmployers); addr != "" {
		return addr
	}
	return verifiedEmployerEmail(p.PastEmployers)
}

func verifiedEmployerEmail(employers []employer) string {
	for _, e := range employers {
		// Map iteration order is random; sort so repeated runs pick the
		// same address.
		addrs := make([]string, 0, len(e.BusinessEmails))
		for addr := range e.BusinessEmails {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			if e.BusinessEmails[addr].VerificationStatus == "verified" {
				return addr
			}
		}
	}
	return ""
}

// ReadableProfile renders a raw profile payload as plain text suitable for a
// generation prompt. Non-JSON input passes through unchanged.
func ReadableProfile(rawProfile string) string {
	p, ok := decodeProfile(rawProfile)
	if !ok {
		return rawProfile
	}

	var b strings.Builder
	b.WriteString("LinkedIn Profile Summary:\n")
	if len(p.BusinessEmail) > 0 {
		fmt.Fprintf(&b, "  Business Email: %s\n", p.BusinessEmail[0])
	}
	if len(p.CurrentEmployers) > 0 {
		b.WriteString("  Current Employment:\n")
		for _, e := range p.CurrentEmployers {
			fmt.Fprintf(&b, "    - %s\n", nameOrNA(e.EmployerName))
			if len(e.WebsiteDomains) > 0 {
				fmt.Fprintf(&b, "      Website: %s\n", e.WebsiteDomains[0])
			}
		}
	}
	if len(p.PastEmployers) > 0 {
		b.WriteString("  Past Employment:\n")
		for _, e := range p.PastEmployers {
			fmt.Fprintf(&b, "    - %s\n", nameOrNA(e.EmployerName))
		}
	}
	return b.String()
}

func nameOrNA(name string) string {
	if name == "" {
		return "N/A"
	}
	return name
}

// decodeProfile accepts either a profile object or an array whose first
// element is the profile, the two shapes the upstream returns.
func decodeProfile(raw string) (profile, bool) {
	trimmed := strings.TrimSpace(raw)

	var list []profile
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		if len(list) == 0 {
			return profile{}, false
		}
		return list[0], true
	}

	var p profile
	if err := json.Unmarshal([]byte(trimmed), &p); err == nil {
		return p, true
	}
	return profile{}, false
}
