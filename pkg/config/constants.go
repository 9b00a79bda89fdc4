package config

const (
	EnvPrefix = "GLOWMART"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv                = "GLOWMART_APP_ENV"
	EnvPort                  = "GLOWMART_APP_PORT"
	EnvRedisURL              = "GLOWMART_REDIS_URL"
	EnvJWTSecret             = "GLOWMART_JWT_SECRET"
	EnvJWTIssuer             = "GLOWMART_JWT_ISSUER"
	EnvCarrierBaseURL        = "GLOWMART_CARRIER_BASE_URL"
	EnvCarrierToken          = "GLOWMART_CARRIER_TOKEN"
	EnvCarrierOriginDistrict = "GLOWMART_CARRIER_ORIGIN_DISTRICT_ID"
	EnvCarrierOriginWard     = "GLOWMART_CARRIER_ORIGIN_WARD_CODE"
	EnvShopBaseURL           = "GLOWMART_SHOP_BASE_URL"
)
