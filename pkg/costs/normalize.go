package costs

import (
	"regexp"
	"strings"
	"unicode"
)

// regionPattern matches AWS-style region codes.
var regionPattern = regexp.MustCompile(`^(us-gov-|cn-)?[a-z]+-[a-z]+-\d+$`)

// placeholderRegions are region values that never name a real region.
var placeholderRegions = map[string]struct{}{
	"":          {},
	"global":    {},
	"n/a":       {},
	"na":        {},
	"none":      {},
	"null":      {},
	"unknown":   {},
	"-":         {},
	"noregion":  {},
	"no region": {},
}

// globalServices holds normalized identifiers of services billed globally.
var globalServices = map[string]struct{}{
	"amazoncloudfront":                {},
	"amazonroute53":                   {},
	"awsidentityandaccessmanagement":  {},
	"awsiam":                          {},
	"awsbilling":                      {},
	"awsbillingconductor":             {},
	"awscostexplorer":                 {},
	"awsbudgets":                      {},
	"awsorganizations":                {},
	"awsglobalaccelerator":            {},
	"awsshield":                       {},
	"awswaf":                          {},
	"awsmarketplace":                  {},
	"awscertificatemanager":           {},
	"awssupportbasic":                 {},
	"awssupportdeveloper":             {},
	"awssupportbusiness":              {},
	"awssupportenterprise":            {},
	"awssupportenterpriseonramp":      {},
	"awspremiumsupport":               {},
	"tax":                             {},
	"amazonroute53domains":            {},
	"awsidentitycentersuccessortosso": {},
	"awssinglesignon":                 {},
	"awstrustedadvisor":               {},
}

// NormalizeService converts a service name into its canonical identifier:
// lowercase, with every non-alphanumeric character removed.
func NormalizeService(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidRegion reports whether region is a real AWS-style region code.
func ValidRegion(region string) bool {
	r := strings.ToLower(strings.TrimSpace(region))
	if _, placeholder := placeholderRegions[r]; placeholder {
		return false
	}
	return regionPattern.MatchString(r)
}

// IsGlobalService reports whether a service is excluded from regional
// breakdowns. It accepts either a display name or a normalized identifier.
func IsGlobalService(service string) bool {
	id := NormalizeService(service)
	if _, ok := globalServices[id]; ok {
		return true
	}
	return strings.HasPrefix(id, "awssupport")
}
