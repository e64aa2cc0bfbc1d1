package email

const (
	subjectLeadAlertFmt = "New %s-priority lead: %s"
)
