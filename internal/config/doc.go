// Package config loads printdeck's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/printdeck/config.toml (default)
//  3. If the config file doesn't exist, fall back to built-in defaults
//  4. If the file exists but fields are missing or blank, use defaults
//
// Command-line flags are applied on top of the loaded values by package cli.
//
// # TOML Format
//
//	device = "192.168.4.1"        # host[:port] or URL of the printer
//	feed_path = "/ws"             # WebSocket status feed path
//	request_timeout = "5s"        # bound for list, select and delete
//	reconnect_delay = "500ms"     # pause between feed closure and redial
//	render_interval = "100ms"     # UI refresh tick
//	status_poll = "0s"            # HTTP status poll while the feed is down, 0 disables
//	retry_max = 2                 # transport retries for listing and status reads
//	log_file = "~/.local/state/printdeck/printdeck.log"
//
// Durations use Go syntax ("250ms", "2s", "1m"). Negative durations and a
// negative retry_max are rejected.
//
// # Path Expansion
//
// A leading tilde is expanded for the config location and for log_file, and
// both are made absolute.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML syntax errors and invalid values ("parse config: ...")
package config
