// Package config manages application configuration for the Raasta Sathi API.
//
// Configuration is read from a .env file when one exists, then from the
// process environment. Every value has a default suitable for local
// development; Validate reports every problem at once.
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP listener, CORS, log level, write rate limit, idempotency window
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: token signing keys and lifetime
//   - SchedulerConfig: cron specs for the background sweeps
//   - ModerationConfig: fake-vote threshold and reporting restriction length
//   - GeoConfig: provider matching radius
//   - RegistrationConfig: emailed code lifetime and attempt limit
//   - UploadsConfig: photo directory and limits
//   - MetricsConfig: Prometheus exporter
//
// # Environment Variables
//
//	SERVER_PORT                  - HTTP port (default: 8080)
//	SERVER_ENV                   - development, production or test
//	LOG_LEVEL                    - debug, info, warn or error (default: info)
//	CORS_ALLOWED_ORIGINS         - comma separated origins
//	RATE_LIMIT_PER_MINUTE        - report, vote and comment writes per caller (default: 30)
//	AUTH_RATE_LIMIT_PER_MINUTE   - register, verify and login requests per client (default: 10)
//	TRUSTED_PROXIES              - proxy IPs/CIDRs whose X-Forwarded-For is used (default: none)
//	IDEMPOTENCY_TTL              - replay window for Idempotency-Key (default: 24h)
//	DB_HOST, DB_PORT             - SurrealDB address
//	DB_NAMESPACE, DB_DATABASE    - SurrealDB namespace and database
//	DB_USER, DB_PASSWORD         - SurrealDB credentials
//	DB_QUERY_TIMEOUT             - per-query bound (default: 10s)
//	JWT_PRIVATE_KEY_PATH         - RSA private key (PEM)
//	JWT_PUBLIC_KEY_PATH          - RSA public key (PEM)
//	JWT_EXPIRATION_MINS          - token lifetime (default: 7 days)
//	SCHEDULER_ENABLED            - run sweeps in-process (default: true)
//	SCHEDULE_REPORT_EXPIRY       - cron spec (default: @every 5m)
//	SCHEDULE_RESOLVED_CLEANUP    - cron spec (default: @hourly)
//	SCHEDULE_RESTRICTION_CLEANUP - cron spec (default: @every 6h)
//	SWEEP_TIMEOUT                - per-run bound (default: 2m)
//	RESOLVED_RETENTION           - age before resolved reports are archived (default: 720h)
//	FAKE_VOTE_THRESHOLD          - fake votes that close a report (default: 3)
//	RESTRICTION_DURATION         - reporting ban length (default: 168h)
//	PROVIDER_MATCH_RADIUS_KM     - provider search radius (default: 10)
//	REGISTRATION_CODE_TTL        - code lifetime (default: 15m)
//	REGISTRATION_MAX_ATTEMPTS    - wrong codes allowed (default: 5)
//	UPLOAD_DIR, UPLOAD_URL_PREFIX, UPLOAD_MAX_BYTES, UPLOAD_MAX_PHOTOS
//	METRICS_ENABLED, METRICS_PATH
package config
