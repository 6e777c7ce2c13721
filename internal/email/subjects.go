package email

const subjectRevisitReminderFmt = "Revisit due: %s"
