package env

// Prefix is the prefix of every remitrates environment variable
const Prefix = "REMITRATES_"

const (
	// DBURLSuffix is the Postgres connection string
	DBURLSuffix = "DB_URL"

	// BadgerPathSuffix is the badger data directory
	BadgerPathSuffix = "BADGER_PATH"

	// AnthropicKeySuffix is the narrative collaborator API key
	AnthropicKeySuffix = "ANTHROPIC_API_KEY"

	// ExchangeRateKeySuffix is the ExchangeRate-API key
	ExchangeRateKeySuffix = "EXCHANGERATE_API_KEY"
)
