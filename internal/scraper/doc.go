// Package scraper fetches the Potsdam naturalization status page and flattens it to text.
//
// Fetching returns the raw response body together with the declared (or sniffed)
// character encoding. ExtractText decodes HTML into a single whitespace-normalized
// string containing only the character data of the document, which is the input
// the status package searches for the backlog sentence.
package scraper
