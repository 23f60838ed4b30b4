package hydrotel

import (
	"regexp"
	"strings"

	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

var (
	wellPattern  = regexp.MustCompile(`(?i)[A-Z]+\d+/\d+`)
	digitPattern = regexp.MustCompile(`\d`)
)

// SiteCodes maps an internal site key to its canonical external site id.
type SiteCodes map[int64]string

// Reconcile derives one external code per site in two passes.
//
// Groundwater wells, whose display name contains a well number such as
// L37/0024, take the matched substring as their code whatever ExtSysID
// holds. The remaining sites keep their trimmed ExtSysID when it contains a
// digit. Wells are taken first; when two sites end up with the same code the
// first one wins. Sites with neither are left out.
func Reconcile(sites []models.Site) SiteCodes {
	type candidate struct {
		site int64
		code string
	}

	wells := make([]candidate, 0)
	numeric := make([]candidate, 0)
	for _, s := range sites {
		if well := wellPattern.FindString(s.Name); well != "" {
			wells = append(wells, candidate{site: s.Site, code: well})
			continue
		}
		code := strings.TrimSpace(s.ExtSysID)
		if code != "" && digitPattern.MatchString(code) {
			numeric = append(numeric, candidate{site: s.Site, code: code})
		}
	}

	codes := make(SiteCodes, len(wells)+len(numeric))
	seen := make(map[string]bool, len(wells)+len(numeric))
	for _, c := range append(wells, numeric...) {
		if seen[c.code] {
			continue
		}
		seen[c.code] = true
		codes[c.site] = c.code
	}
	return codes
}
