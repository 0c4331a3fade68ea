// SPDX-License-Identifier: MPL-2.0

// Package config handles mthds configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the platform configuration directory
// ($XDG_CONFIG_HOME/mthds on Linux, ~/Library/Application Support/mthds on macOS,
// %APPDATA%\mthds on Windows), falling back to ./config.cue. Every key can be overridden
// with an MTHDS_ environment variable (MTHDS_GIT_TIMEOUT for git.timeout), and
// MTHDS_PACKAGES_PATH sets the package cache directory.
//
// Files are validated against the embedded config_schema.cue before they reach Viper.
package config
