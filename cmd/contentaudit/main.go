// Package main provides the contentaudit CLI.
//
// contentaudit scores local documents with the same engine the HTTP service
// uses and prints a report per input.
//
// Usage:
//
//	contentaudit evaluate page.html --keywords "worker pool,go"
//	cat page.html | contentaudit evaluate --format markdown
package main

func main() {
	Execute()
}
