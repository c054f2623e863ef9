// Package config defines the settings shared by par-compiler and par-launcher
// and provides helpers to locate, load, validate and save them in YAML format.
//
// Settings are looked up in the explicit path, then in the working directory,
// then in the XDG config directories. Missing settings fall back to defaults.
package config
