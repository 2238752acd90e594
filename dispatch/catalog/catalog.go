package catalog

import (
	"sort"

	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
)

// Target classes a letter type applies to.
const (
	TargetBureau    = "bureau"
	TargetCollector = "collector"
	TargetCreditor  = "creditor"
	TargetAny       = "any"
)

// TemplateInfo is the catalog metadata for one letter type. The catalog is
// fixed at compile time and read-only for the lifetime of the process.
type TemplateInfo struct {
	ID         int
	Name       string
	Category   string
	TargetType string
	LegalBasis string
}

var letterTemplates = map[string]TemplateInfo{
	// Category 1: Credit Report Disputes (FCRA)
	"basic_bureau": {
		ID:         1,
		Name:       "Basic Credit Bureau Dispute",
		Category:   "FCRA",
		TargetType: TargetBureau,
		LegalBasis: "FCRA § 1681i",
	},
	"609_verification": {
		ID:         2,
		Name:       "609 Verification Request",
		Category:   "FCRA",
		TargetType: TargetBureau,
		LegalBasis: "FCRA § 609 (15 U.S.C. § 1681g)",
	},
	"611_reinvestigation": {
		ID:         3,
		Name:       "611 Reinvestigation Demand",
		Category:   "FCRA",
		TargetType: TargetBureau,
		LegalBasis: "FCRA § 611 (15 U.S.C. § 1681i)",
	},
	"method_of_verification": {
		ID:         4,
		Name:       "Method of Verification Demand",
		Category:   "FCRA",
		TargetType: TargetBureau,
		LegalBasis: "FCRA § 611(a)(6)(B)(iii)",
	},
	"identity_theft": {
		ID:         5,
		Name:       "Identity Theft Dispute",
		Category:   "FCRA",
		TargetType: TargetBureau,
		LegalBasis: "FCRA § 605B",
	},
	// Category 2: Debt Collector Disputes (FDCPA)
	"debt_validation": {
		ID:         6,
		Name:       "Debt Validation Letter",
		Category:   "FDCPA",
		TargetType: TargetCollector,
		LegalBasis: "FDCPA § 1692g",
	},
	"cease_desist": {
		ID:         7,
		Name:       "Cease and Desist Letter",
		Category:   "FDCPA",
		TargetType: TargetCollector,
		LegalBasis: "FDCPA § 1692c(c)",
	},
	"pay_for_delete": {
		ID:         8,
		Name:       "Pay-for-Delete Letter",
		Category:   "Negotiation",
		TargetType: TargetCollector,
		LegalBasis: "None (negotiation)",
	},
	"goodwill": {
		ID:         9,
		Name:       "Goodwill Removal Letter",
		Category:   "Courtesy",
		TargetType: TargetCreditor,
		LegalBasis: "None (courtesy request)",
	},
	// Category 3: Creditor-Specific
	"direct_creditor": {
		ID:         10,
		Name:       "Direct Creditor Dispute",
		Category:   "FCRA",
		TargetType: TargetCreditor,
		LegalBasis: "FCRA § 1681s-2(b)",
	},
	"chargeoff_removal": {
		ID:         11,
		Name:       "Charge-Off Removal Request",
		Category:   "Negotiation",
		TargetType: TargetCreditor,
		LegalBasis: "Negotiation",
	},
	// Category 4: Hard Inquiry
	"unauthorized_inquiry": {
		ID:         12,
		Name:       "Unauthorized Inquiry Removal",
		Category:   "FCRA",
		TargetType: TargetBureau,
		LegalBasis: "FCRA § 1681b",
	},
	// Category 5: Medical
	"hipaa_medical": {
		ID:         13,
		Name:       "HIPAA Medical Debt Dispute",
		Category:   "HIPAA/FDCPA",
		TargetType: TargetCollector,
		LegalBasis: "HIPAA + FDCPA § 1692g",
	},
	// Category 6: Advanced
	"statute_of_limitations": {
		ID:         14,
		Name:       "Statute of Limitations Defense",
		Category:   "State Law",
		TargetType: TargetCollector,
		LegalBasis: "State SOL laws",
	},
	"intent_to_sue": {
		ID:         15,
		Name:       "Intent to Sue Letter",
		Category:   "FCRA/FDCPA",
		TargetType: TargetAny,
		LegalBasis: "FCRA § 1681n / FDCPA § 1692k",
	},
	"arbitration_election": {
		ID:         16,
		Name:       "Arbitration Election Letter",
		Category:   "Contract",
		TargetType: TargetCreditor,
		LegalBasis: "Federal Arbitration Act",
	},
	// Category 7: Billing
	"billing_error": {
		ID:         17,
		Name:       "Billing Error / Unauthorized Charge",
		Category:   "FCBA",
		TargetType: TargetCreditor,
		LegalBasis: "FCBA (15 U.S.C. § 1666)",
	},
	// Category 8: Business
	"breach_of_contract": {
		ID:         18,
		Name:       "Breach of Contract Notice",
		Category:   "Contract",
		TargetType: TargetAny,
		LegalBasis: "State contract law / UCC",
	},
	"demand_letter": {
		ID:         19,
		Name:       "Formal Demand Letter",
		Category:   "General",
		TargetType: TargetAny,
		LegalBasis: "General contract law",
	},
}

var bureauAddresses = map[string]models.Address{
	"equifax": {
		Name:  "Equifax Information Services LLC",
		Line1: "P.O. Box 740256",
		City:  "Atlanta",
		State: "GA",
		Zip:   "30374-0256",
	},
	"experian": {
		Name:  "Experian",
		Line1: "P.O. Box 4500",
		City:  "Allen",
		State: "TX",
		Zip:   "75013",
	},
	"transunion": {
		Name:  "TransUnion LLC Consumer Dispute Center",
		Line1: "P.O. Box 2000",
		City:  "Chester",
		State: "PA",
		Zip:   "19016",
	},
}

// Lookup returns catalog metadata for a letter type. Unknown keys fail with
// an UnknownLetterTypeError carrying the valid key list.
func Lookup(letterType string) (TemplateInfo, error) {
	info, ok := letterTemplates[letterType]
	if !ok {
		return TemplateInfo{}, &customErrors.UnknownLetterTypeError{
			LetterType: letterType,
			ValidTypes: ValidTypes(),
		}
	}
	return info, nil
}

// ValidTypes returns all letter type keys in catalog ID order.
func ValidTypes() []string {
	keys := make([]string, 0, len(letterTemplates))
	for k := range letterTemplates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return letterTemplates[keys[i]].ID < letterTemplates[keys[j]].ID
	})
	return keys
}

// BureauAddress resolves a bureau target key to its mailing address.
func BureauAddress(target string) (models.Address, error) {
	addr, ok := bureauAddresses[target]
	if !ok {
		return models.Address{}, &customErrors.UnknownTargetError{
			Target:       target,
			ValidTargets: Bureaus(),
		}
	}
	return addr, nil
}

// IsBureau reports whether target is a known credit bureau key.
func IsBureau(target string) bool {
	_, ok := bureauAddresses[target]
	return ok
}

// Bureaus returns the bureau keys in the canonical send-all order.
func Bureaus() []string {
	return []string{"equifax", "experian", "transunion"}
}
