package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "LOADPILOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "LOADPILOT_APP_ENV"
	EnvPort       = "LOADPILOT_APP_PORT"
	EnvDBDSN      = "LOADPILOT_DB_DSN"
	EnvDBHost     = "LOADPILOT_DB_HOST"
	EnvDBUser     = "LOADPILOT_DB_USER"
	EnvDBName     = "LOADPILOT_DB_NAME"
	EnvGCPProject = "LOADPILOT_GCP_PROJECT_ID"
	EnvInboundSub = "LOADPILOT_PUBSUB_INBOUND_SUBSCRIPTION"
)

// legacyDBEnvVars are the discrete connection variables accepted when no
// DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
