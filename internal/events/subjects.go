package events

const (
	StreamName   = "FAIRSWEEP_EVENTS"
	StreamMaxAge = "720h" // 30 days

	// SubjectJobCanceledAll matches cancellations for any job.
	SubjectJobCanceledAll = "fairsweep.job.*.canceled"
)

func SubjectJobCreated(jobID string) string   { return "fairsweep.job." + jobID + ".created" }
func SubjectJobStarted(jobID string) string   { return "fairsweep.job." + jobID + ".started" }
func SubjectJobCompleted(jobID string) string { return "fairsweep.job." + jobID + ".completed" }
func SubjectJobFailed(jobID string) string    { return "fairsweep.job." + jobID + ".failed" }
func SubjectJobCanceled(jobID string) string  { return "fairsweep.job." + jobID + ".canceled" }
func SubjectJobTimeout(jobID string) string   { return "fairsweep.job." + jobID + ".timeout" }
