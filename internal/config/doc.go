// Package config provides the configuration of a report run and the
// optional .a11yreport file with per-page browser settings.
package config
