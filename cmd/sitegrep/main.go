// Package main provides the entry point for the sitegrep CLI.
//
// Sitegrep crawls one or more websites breadth-first, staying inside each
// seed's origin, and reports every page whose content matches the
// configured keywords. Broken links discovered along the way are logged.
//
// Usage:
//
//	sitegrep crawl --keywords hiring,golang https://example.com
//	sitegrep crawl -c crawl.yaml
//
// See --help for all available options.
package main

// main is the entry point for sitegrep.
func main() {
	Execute()
}
