// Package config resolves rfqedit's runtime configuration and field layout.
//
// # Configuration File Location
//
// Both files live in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/rfqedit or $HOME/.config/rfqedit
//   - macOS: $HOME/.config/rfqedit
//   - Windows: %LOCALAPPDATA%\rfqedit
//
// # Precedence
//
// Load merges, from lowest to highest: built-in defaults, config.yaml,
// RFQEDIT_* environment variables (RFQEDIT_SERVER, RFQEDIT_RFQ_ID, ...) and
// command-line flags that were explicitly set.
//
// # Layout
//
// layout.yaml lists the record fields shown by the terminal view, grouped
// into titled sections. Only these fields are ever bound, so fields the
// service returns but the layout omits are ignored. Several entries may
// name the same field.
//
//	version: 1
//	sections:
//	  - title: Offer
//	    fields:
//	      - field: grand_total
//	        label: Total
package config
