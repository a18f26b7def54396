// Package parser holds the page-parsing collaborators consumed by the crawl
// engine: word counting shared by every implementation and an in-memory link
// graph. The network-backed parser lives in the colly subpackage.
package parser
