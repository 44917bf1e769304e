package config

// Environment variable names shared between Load and the test harness.
const (
	EnvAppEnv         = "ONYX_APP_ENV"
	EnvPort           = "ONYX_APP_PORT"
	EnvStaffToken     = "ONYX_STAFF_TOKEN"
	EnvAirtableAPIKey = "ONYX_AIRTABLE_API_KEY"
	EnvAirtableBaseID = "ONYX_AIRTABLE_BASE_ID"
	EnvRedisURL       = "ONYX_REDIS_URL"
	EnvStripeAPIKey   = "ONYX_STRIPE_API_KEY"
	EnvEasyPostAPIKey = "ONYX_EASYPOST_API_KEY"
)
