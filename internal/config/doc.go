// Package config holds shellpane's settings.
//
// Settings are resolved in layers, later layers winning:
//
//  1. built-in defaults (Default)
//  2. the TOML file, by default $XDG_CONFIG_HOME/shellpane/config.toml
//  3. SHELLPANE_* environment variables
//  4. command line flags, applied by the caller after Load
//
// A missing file is not an error. Validate reports every invalid field at
// once.
//
// Example file:
//
//	[shell]
//	program = "/bin/zsh"
//	sync_cd = true
//
//	[ui]
//	layout = "vertical"
//	split = 0.35
//
//	[keys]
//	toggle = "ctrl+t"
//
//	[keys.bind]
//	quit = ["q", "ctrl+q"]
package config
