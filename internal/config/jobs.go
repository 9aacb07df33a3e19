package config

// JobsConfig holds cron specs (seconds precision, UTC) for background jobs.
type JobsConfig struct {
	Enabled          bool
	PaymentReminders string
}

func LoadJobsConfig() JobsConfig {
	return JobsConfig{
		Enabled:          envBool("JOBS_ENABLED", true),
		PaymentReminders: envStr("JOB_PAYMENT_REMINDERS", "0 0 * * * *"),
	}
}
