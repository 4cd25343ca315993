// Package beacon holds the data types shared by every discovery
// component: the contact input, the intermediate candidate shape, and
// the final result the orchestrator and processor produce.
package beacon

// ContactInput is one contact as a caller supplied it: a name plus a
// domain or URL to search. Validating and normalizing it into the
// orchestrator's inputs is the Record Processor's job.
type ContactInput struct {
	FirstName     string
	LastName      string
	FullName      string
	Domain        string
	CompanyDomain string
	Company       string
}

// MailServer is the exchange resolved for a domain. Preference 65535 is
// the sentinel used when the resolver fell back to an A record.
type MailServer struct {
	Exchange   string
	Preference uint16
}

const ARecordFallbackPreference uint16 = 65535

// Source identifies how a candidate email was produced.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceScraped Source = "scraped"
)

// VerificationStatus is the outcome of an SMTP probe.
type VerificationStatus string

const (
	StatusVerified     VerificationStatus = "verified"
	StatusRejected     VerificationStatus = "rejected"
	StatusInconclusive VerificationStatus = "inconclusive"
)

// Candidate is an email under evaluation, carrying the provenance flags
// the scoring step needs.
type Candidate struct {
	Email                string
	Source               Source
	IsPattern            bool
	IsScraped            bool
	IsGeneric            bool
	MatchesPrimaryDomain bool
	NameInLocal          bool
}

// FoundEmail is one scored, optionally SMTP-verified candidate, ready for
// the result's ranked list.
type FoundEmail struct {
	Email                string
	Confidence           int
	Source               Source
	IsGeneric            bool
	VerificationStatus   *VerificationStatus
	VerificationMessage  string
}

// Result is the Discovery Orchestrator's output: a ranked candidate list
// plus the single best pick, if any.
type Result struct {
	FoundEmails      []FoundEmail
	MostLikelyEmail  string
	ConfidenceScore  int
	MethodsUsed      []string
	VerificationLog  map[string]string
}

const (
	MethodPatternGeneration = "pattern_generation"
	MethodWebsiteScraping   = "website_scraping"
	MethodSMTPVerification  = "smtp_verification"
)
