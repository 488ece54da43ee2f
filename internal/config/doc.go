// Package config loads breate's TOML configuration.
//
// # Resolution
//
// Load reads ~/.config/breate/config.toml unless a path is given. A missing
// file is not an error; Default values are used instead. Blank or zero
// fields also keep their defaults. After the file, BREATE_API_BASE and
// BREATE_USERNAME from the environment win. LoadEnv pulls those from a .env
// file in the working directory first, without overriding real variables.
//
// # TOML Format
//
//	api_base = "http://127.0.0.1:8000/api/v1"
//	username = "kofi"
//	log_level = "info"
//	log_path = "~/.local/share/breate/breate.log"
//	debounce_ms = 400
//	poll_seconds = 0
//	mutation_ttl_seconds = 0
//
//	[retry]
//	max_retries = 3
//	delay_ms = 800
//	backoff = "fixed"
//
//	[screens.collabhub]
//	delay_ms = 1000
//
//	[screens.discover]
//	skip_empty = true
//
// Retry settings are overrides. Each screen starts from its own preset,
// then [retry], then its [screens.<name>] table; Config.Policy applies that
// layering. Negative counts or delays and unknown backoff names fail Load.
//
// Tilde expansion applies to the config path and log_path.
package config
