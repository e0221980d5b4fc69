// Package config provides configuration structures and utilities for
// sitegrep. It defines crawl defaults, the YAML configuration file loader,
// and the merge rules between file-sourced and flag-sourced seeds and
// keywords.
package config
