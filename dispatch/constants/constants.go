package constants

// App name and usage.  Edit them here to prevent breaking tests
const Name = "dispatch"
const Usage = "Certified Mail Dispatch System CLI"

// Days allowed for a recipient to respond before a dispute is overdue, and
// the additional grace period before escalation is recommended.
const ResponseWindowDays = 30
const EscalationWindowDays = 35

// This is set during compilation.  See the build script in the ops repo.
var Version = "latest"
