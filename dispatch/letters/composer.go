package letters

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/creditarchitect/dispatch-app/dispatch/catalog"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
)

// Context carries letter-specific auxiliary fields. Recognized keys vary per
// letter type (original_dispute_date, settlement_amount, violations, ...);
// unrecognized keys are ignored and missing recognized keys render a visible
// bracket placeholder so an incomplete letter is still producible.
type Context map[string]interface{}

func (c Context) str(key, placeholder string) string {
	if c == nil {
		return placeholder
	}
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return html.EscapeString(s)
		}
	}
	return placeholder
}

func (c Context) strs(key string, placeholder []string) []string {
	if c == nil {
		return placeholder
	}
	if v, ok := c[key]; ok {
		switch vals := v.(type) {
		case []string:
			if len(vals) > 0 {
				escaped := make([]string, len(vals))
				for i, s := range vals {
					escaped[i] = html.EscapeString(s)
				}
				return escaped
			}
		case string:
			if vals != "" {
				return []string{html.EscapeString(vals)}
			}
		}
	}
	return placeholder
}

type bodyParams struct {
	itemsBlock string
	firstItem  string
	ctx        Context
}

// Generate renders a complete HTML dispute letter for mail provider printing.
// It is pure: no network or disk access. Malformed party data fails fast with
// a MissingRequiredFieldError before any composition happens.
func Generate(letterType string, sender models.Sender, recipient models.Address, items []models.DisputeItem, extra Context) (string, error) {
	if _, err := catalog.Lookup(letterType); err != nil {
		return "", err
	}
	if err := validateParty("client", sender.Address); err != nil {
		return "", err
	}
	if err := validateParty("recipient", recipient); err != nil {
		return "", err
	}

	p := bodyParams{
		itemsBlock: itemsBlock(items),
		firstItem:  "Account",
		ctx:        extra,
	}
	if len(items) > 0 && items[0].AccountName != "" {
		p.firstItem = html.EscapeString(items[0].AccountName)
	}

	build, ok := bodyBuilders[letterType]
	if !ok {
		build = bodyBuilders["basic_bureau"]
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(header(sender, recipient))
	b.WriteString(build(p))
	b.WriteString(footer(sender))
	b.WriteString("</body></html>")
	return b.String(), nil
}

func validateParty(party string, addr models.Address) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", addr.Name},
		{"address_line1", addr.Line1},
		{"city", addr.City},
		{"state", addr.State},
		{"zip", addr.Zip},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &customErrors.MissingRequiredFieldError{Field: party + " " + f.name}
		}
	}
	return nil
}

func itemsBlock(items []models.DisputeItem) string {
	var b strings.Builder
	for _, item := range items {
		name := item.AccountName
		if name == "" {
			name = "Unknown"
		}
		last4 := item.AccountNumberLast4
		if last4 == "" {
			last4 = "XXXX"
		}
		reason := item.Reason
		if reason == "" {
			reason = "Information is inaccurate"
		}
		fmt.Fprintf(&b, `
        <p style="margin-left: 20px;">
            <strong>Account:</strong> %s<br>
            <strong>Account Number:</strong> XXXX-%s<br>
            <strong>Reason for Dispute:</strong> %s<br>
            <strong>Details:</strong> %s
        </p>
`,
			html.EscapeString(name), html.EscapeString(last4),
			html.EscapeString(reason), html.EscapeString(item.Details))
	}
	return b.String()
}

func header(sender models.Sender, recipient models.Address) string {
	today := time.Now().Format("January 2, 2006")
	ssn4 := sender.SSNLast4
	if ssn4 == "" {
		ssn4 = "XXXX"
	}
	dob := sender.DOB
	if dob == "" {
		dob = "[DOB]"
	}
	return fmt.Sprintf(`
    <div style="font-family: 'Times New Roman', serif; font-size: 12pt; line-height: 1.6; max-width: 6.5in; margin: 0 auto;">
        <p>
            %s<br>
            %s<br>
            %s, %s %s<br>
            SSN (last 4): XXX-XX-%s<br>
            DOB: %s
        </p>
        <p>%s</p>
        <p>
            %s<br>
            %s<br>
            %s, %s %s
        </p>
`,
		html.EscapeString(sender.Name), html.EscapeString(sender.Line1),
		html.EscapeString(sender.City), html.EscapeString(sender.State), html.EscapeString(sender.Zip),
		html.EscapeString(ssn4), html.EscapeString(dob),
		today,
		html.EscapeString(recipient.Name), html.EscapeString(recipient.Line1),
		html.EscapeString(recipient.City), html.EscapeString(recipient.State), html.EscapeString(recipient.Zip))
}

func footer(sender models.Sender) string {
	return fmt.Sprintf(`
        <p>Sincerely,</p>
        <br><br>
        <p>%s</p>
        <p style="font-size: 10pt; color: #666; margin-top: 30px;">
            <em>SENT VIA USPS CERTIFIED MAIL — RETURN RECEIPT REQUESTED</em>
        </p>
    </div>
`, html.EscapeString(sender.Name))
}

var bodyBuilders = map[string]func(p bodyParams) string{
	"basic_bureau": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Dispute of Inaccurate Information</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>Pursuant to my rights under the Fair Credit Reporting Act, 15 U.S.C. § 1681i,
            I am writing to dispute the following inaccurate information in my credit file.</p>
            <p>The following item(s) are inaccurate and require investigation:</p>
            %s
            <p>I request that you investigate this matter and correct or delete the inaccurate
            information within 30 days as required by law.</p>
            <p>Please provide written confirmation of the results of your investigation and a
            free copy of my updated credit report.</p>
`, p.itemsBlock)
	},
	"609_verification": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Request for Disclosure Under FCRA § 609</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>Pursuant to my rights under the Fair Credit Reporting Act, 15 U.S.C. § 1681g,
            I am requesting full disclosure of the following:</p>
            <ol>
                <li>All information in my consumer file</li>
                <li>The sources of all information in my file</li>
                <li>The identity of each person who procured my report in the preceding 2 years</li>
            </ol>
            <p>Specifically, regarding the following account(s):</p>
            %s
            <p>I request that you provide documentation verifying the accuracy of this account,
            including any original signed agreement bearing my signature that was used to validate
            this information.</p>
`, p.itemsBlock)
	},
	"611_reinvestigation": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Demand for Reinvestigation Under FCRA § 611</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>On %s, I submitted a dispute regarding
            the following account(s):</p>
            %s
            <p>You responded that the information was "verified." Pursuant to FCRA § 611(a)(6)(B)(iii),
            I am requesting:</p>
            <ol>
                <li>A description of the procedure used to determine the accuracy and completeness
                of the information</li>
                <li>The business name, address, and telephone number of any furnisher contacted in
                connection with the reinvestigation</li>
                <li>A notice that I have the right to add a statement to my file disputing the
                accuracy of the information</li>
            </ol>
            <p>If you cannot provide this information within 15 days, I will consider filing a
            complaint with the Consumer Financial Protection Bureau and consulting with an
            FCRA attorney.</p>
`, p.ctx.str("original_dispute_date", "[DATE]"), p.itemsBlock)
	},
	"method_of_verification": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Request for Method of Verification</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I previously disputed the following account(s) and received notification that
            the information was verified:</p>
            %s
            <p>Date of Original Dispute: %s</p>
            <p>Pursuant to FCRA § 611(a)(6)(B)(iii), I am formally requesting the method of
            verification used. Specifically:</p>
            <ol>
                <li>What documents were reviewed?</li>
                <li>Who verified this information?</li>
                <li>What specific data points were confirmed?</li>
            </ol>
            <p>If a reasonable method of verification cannot be provided, this account must be
            deleted from my credit file.</p>
`, p.itemsBlock, p.ctx.str("original_dispute_date", "[DATE]"))
	},
	"identity_theft": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Identity Theft — Request for Block Under FCRA § 605B</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I am a victim of identity theft. The following account(s) were opened fraudulently
            without my knowledge or consent:</p>
            %s
            <p>Pursuant to FCRA § 605B, I request that you block this information from my credit
            report within 4 business days.</p>
            <p>Enclosed:</p>
            <ol>
                <li>FTC Identity Theft Affidavit (completed)</li>
                <li>Police report (case number: %s)</li>
                <li>Copy of government-issued photo ID</li>
                <li>Proof of address</li>
            </ol>
            <p>I also request a fraud alert be placed on my file and that you notify the other
            two nationwide credit bureaus.</p>
`, p.itemsBlock, p.ctx.str("police_case_number", "[CASE #]"))
	},
	"debt_validation": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Debt Validation Request — %s</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I am writing in response to your communication regarding the above-referenced
            account.</p>
            <p>Pursuant to my rights under the Fair Debt Collection Practices Act, 15 U.S.C.
            § 1692g, I request validation of this debt. Please provide:</p>
            <ol>
                <li>The amount of the debt and an itemized breakdown of all charges</li>
                <li>The name and address of the original creditor</li>
                <li>A copy of the original signed agreement between myself and the original creditor</li>
                <li>Proof that your company is authorized/licensed to collect debts in my state</li>
                <li>Complete payment history from the original creditor</li>
                <li>Proof that the statute of limitations has not expired</li>
            </ol>
            <p>Until this debt is fully validated, I demand that you:</p>
            <ul>
                <li>Cease all collection activity</li>
                <li>Remove any reporting to credit bureaus related to this account</li>
            </ul>
            <p>This is not a refusal to pay, but a request for verification as provided by
            federal law.</p>
`, p.firstItem)
	},
	"cease_desist": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Cease and Desist Communication</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>Pursuant to my rights under the Fair Debt Collection Practices Act, 15 U.S.C.
            § 1692c(c), I am directing you to cease all communication with me regarding the
            above-referenced account(s).</p>
            %s
            <p>This letter serves as your notification that I am exercising my right to stop
            contact. Any further communication beyond a final notice of intended action
            constitutes a violation of the FDCPA.</p>
            <p>I understand you may still pursue legal remedies. This letter pertains solely
            to direct communication.</p>
`, p.itemsBlock)
	},
	"pay_for_delete": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Settlement Offer</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I am writing regarding the above-referenced account with an alleged balance.</p>
            %s
            <p>I am prepared to pay $%s in exchange for
            the complete removal of this account from my credit reports with all three major
            credit bureaus (Equifax, Experian, and TransUnion).</p>
            <p>This offer is conditional upon your written agreement to:</p>
            <ol>
                <li>Accept the above amount as payment in full</li>
                <li>Delete all references to this account from all credit bureau reports within
                30 days of payment</li>
                <li>Never re-sell or re-assign this debt</li>
            </ol>
            <p>If you agree to these terms, please respond in writing on your company letterhead.
            Payment will be made within 15 days of receiving your written agreement.</p>
            <p>This letter is not an acknowledgment of the validity of this debt, nor is it a
            promise to pay absent your written agreement to the terms above.</p>
`, p.itemsBlock, p.ctx.str("settlement_amount", "[AMOUNT]"))
	},
	"goodwill": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Goodwill Adjustment Request</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I have been a loyal customer of your company since %s.
            I am writing to respectfully request a goodwill adjustment to remove the late payment
            reported on my account for %s.</p>
            %s
            <p>%s</p>
            <p>This late payment is significantly impacting my ability to
            %s.</p>
            <p>I understand this is a courtesy and not an obligation, but I would greatly
            appreciate your consideration.</p>
            <p>Thank you for your time.</p>
`,
			p.ctx.str("relationship_since", "[YEAR]"),
			p.ctx.str("late_payment_month", "[MONTH/YEAR]"),
			p.itemsBlock,
			p.ctx.str("explanation", "Due to an unforeseen circumstance, I was unable to make my payment on time. Since that time, I have maintained a perfect payment record."),
			p.ctx.str("credit_goal", "qualify for favorable credit terms"))
	},
	"direct_creditor": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Direct Dispute of Reported Information</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>Pursuant to FCRA § 1681s-2(b), I am directly disputing the accuracy of
            information you are furnishing to the credit bureaus regarding the following
            account(s):</p>
            %s
            <p>Please investigate and correct the information reported to Equifax, Experian,
            and TransUnion. Under the FCRA, you are required to:</p>
            <ol>
                <li>Conduct a reasonable investigation</li>
                <li>Review all relevant information provided</li>
                <li>Report the results to the credit bureau</li>
                <li>Modify, delete, or permanently block reporting if inaccurate</li>
            </ol>
`, p.itemsBlock)
	},
	"chargeoff_removal": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Charge-Off Settlement and Removal</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I am writing regarding the following account(s), currently reported as charge-off(s):</p>
            %s
            <p>I would like to resolve this account and am prepared to pay
            $%s. In exchange, I request that you agree to:</p>
            <ol>
                <li>Remove the charge-off designation from my credit reports with all three bureaus</li>
                <li>Report the account as "paid in full" and "account closed" OR delete the trade
                line entirely</li>
                <li>Provide written confirmation of these terms before payment</li>
            </ol>
            <p>Please respond in writing with your agreement to these terms.</p>
`, p.itemsBlock, p.ctx.str("settlement_amount", "[AMOUNT]"))
	},
	"unauthorized_inquiry": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Unauthorized Credit Inquiry</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I have reviewed my credit report and identified the following unauthorized
            hard inquiry(ies):</p>
            %s
            <p>I did not apply for credit with the above company/companies, nor did I provide
            written authorization for them to access my credit report.</p>
            <p>Pursuant to FCRA § 1681b, a credit report may only be obtained for a permissible
            purpose. These inquiries were made without my consent and without a permissible purpose.</p>
            <p>I request that you:</p>
            <ol>
                <li>Investigate these unauthorized inquiries</li>
                <li>Remove them from my credit report</li>
                <li>Provide me with the contact information for the inquiring companies</li>
            </ol>
`, p.itemsBlock)
	},
	"hipaa_medical": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Medical Debt Dispute</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I am disputing the following medical collection(s):</p>
            %s
            <p>Please provide the following:</p>
            <ol>
                <li>Proof of your HIPAA-compliant authorization to possess my protected health
                information (PHI)</li>
                <li>A copy of the signed HIPAA authorization form from me permitting disclosure
                of my medical information to your agency</li>
                <li>Validation of the debt per FDCPA § 1692g, including:
                    <ul>
                        <li>Itemized statement from the original provider</li>
                        <li>Proof that insurance was properly billed and exhausted</li>
                        <li>Name and address of the original medical provider</li>
                    </ul>
                </li>
            </ol>
            <p>Under HIPAA, my protected health information cannot be disclosed without proper
            authorization. If you cannot provide a valid HIPAA authorization bearing my signature,
            you are in possession of my PHI illegally and must cease collection and delete any
            credit reporting immediately.</p>
`, p.itemsBlock)
	},
	"statute_of_limitations": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Time-Barred Debt</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>I am writing in response to your communication regarding the above-referenced
            account(s).</p>
            %s
            <p>Please be advised that the alleged debt referenced in your communication is beyond
            the statute of limitations in my state, which is %s years
            for this type of debt.</p>
            <p>Under state law, this debt is time-barred and legally unenforceable through the courts.
            Any attempt to collect on a time-barred debt or to threaten legal action constitutes
            a violation of the FDCPA.</p>
            <p>I demand that you:</p>
            <ol>
                <li>Cease all collection activity</li>
                <li>Remove any reporting of this account to credit bureaus</li>
                <li>Provide written confirmation that this account is closed</li>
            </ol>
            <p><strong>Nothing in this letter constitutes an acknowledgment of this debt or a
            promise to pay.</strong></p>
`, p.itemsBlock, p.ctx.str("statute_years", "[X]"))
	},
	"intent_to_sue": func(p bodyParams) string {
		violations := p.ctx.strs("violations", []string{"[LIST VIOLATIONS]"})
		var list strings.Builder
		for _, v := range violations {
			fmt.Fprintf(&list, "<li>%s</li>", v)
		}
		return fmt.Sprintf(`
            <p><strong>RE: Notice of Intent to Sue — FCRA/FDCPA Violations</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>This letter serves as formal notice of my intent to pursue legal action against
            your company for violations of the Fair Credit Reporting Act and/or Fair Debt
            Collection Practices Act.</p>
            <p>Specifically, you have:</p>
            <ul>
                %s
            </ul>
            <p>I have documentation of these violations, each carrying statutory damages of
            $100–$1,000 under § 1681n, plus actual damages, attorney's fees, and punitive damages.</p>
            <p>I am providing you with %s days to resolve this matter.
            If not resolved by that date, I will retain legal counsel and pursue all available remedies.</p>
`, list.String(), p.ctx.str("deadline_days", "30"))
	},
	"arbitration_election": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Election of Arbitration</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>Pursuant to the arbitration clause in the agreement governing the following
            account(s), I am formally electing arbitration to resolve the dispute described below.</p>
            %s
            <p>I am invoking my right to individual arbitration as specified in the agreement.
            Please provide me with the designated arbitration administrator information so that
            I may initiate proceedings.</p>
            <p>As outlined in the agreement, your company is responsible for paying the
            arbitration filing and administration fees.</p>
`, p.itemsBlock)
	},
	"billing_error": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Billing Error Notice Under FCBA</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>Pursuant to the Fair Credit Billing Act, 15 U.S.C. § 1666, I am writing to
            dispute the following charge(s) on my account:</p>
            %s
            <p>I request that you:</p>
            <ol>
                <li>Investigate this billing error</li>
                <li>Credit my account for the disputed amount</li>
                <li>Provide written confirmation of the resolution</li>
            </ol>
            <p>Under the FCBA, you must acknowledge this dispute within 30 days and resolve
            it within two billing cycles (not exceeding 90 days). During the investigation,
            you may not attempt to collect the disputed amount or report it as delinquent.</p>
`, p.itemsBlock)
	},
	"breach_of_contract": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Notice of Breach of Contract</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>This letter serves as formal notice that your company is in breach of the
            agreement between us.</p>
            <p>Specifically, the following terms have been violated:</p>
            %s
            <p>I am providing you with %s days to cure this breach.
            If the breach is not cured within the specified period, I will pursue all available
            legal remedies, including but not limited to damages, specific performance, and
            attorney's fees as provided in the agreement.</p>
`, p.itemsBlock, p.ctx.str("deadline_days", "30"))
	},
	"demand_letter": func(p bodyParams) string {
		return fmt.Sprintf(`
            <p><strong>RE: Formal Demand</strong></p>
            <p>Dear Sir/Madam:</p>
            <p>This letter constitutes a formal demand for %s.</p>
            %s
            <p>You are hereby demanded to take the above action within %s days
            of receipt of this letter.</p>
            <p>If this matter is not resolved by that date, I will pursue all available legal
            remedies without further notice, including filing suit for the amount owed plus
            court costs, interest, and attorney's fees as applicable.</p>
            <p><em>This letter is sent without prejudice to any of my rights and remedies,
            all of which are expressly reserved.</em></p>
`,
			p.ctx.str("demand_action", "resolution of the following matter"),
			p.itemsBlock,
			p.ctx.str("deadline_days", "30"))
	},
}
