package service

import (
	"fmt"
	"regexp"
	"strings"
)

// GitHub renders README HTML with paths relative to the repository root.
// Served from this app's origin those paths 404, so they are rewritten to
// absolute URLs: images (src) to the raw-content host, links (href) to the
// repository's blob pages, both anchored at the default branch.
var (
	srcAttrPattern  = regexp.MustCompile(`src="([^"]*)"`)
	hrefAttrPattern = regexp.MustCompile(`href="([^"]*)"`)
)

// rewriteRelativeLinks rewrites relative src/href attribute values in the
// rendered README HTML.
//
// A src value is left alone when it is absolute ("http...") or
// root-relative ("/..."); an href additionally when it is a fragment
// ("#..."). Everything else is resolved against the default branch, with a
// leading "./" stripped.
//
// KNOWN LIMITATION: this is a text-level transform, not an HTML parse. An
// attribute-shaped string inside a <pre> or <code> block gets rewritten
// too. Accepted as best-effort cosmetics — a structural parser is not
// worth its weight here.
func rewriteRelativeLinks(html, owner, repo, branch string) string {
	rawBase := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", owner, repo, branch)
	webBase := fmt.Sprintf("https://github.com/%s/%s/blob/%s", owner, repo, branch)

	html = srcAttrPattern.ReplaceAllStringFunc(html, func(m string) string {
		path := m[len(`src="`) : len(m)-1]
		if path == "" || strings.HasPrefix(path, "/") || strings.HasPrefix(path, "http") {
			return m
		}
		return `src="` + rawBase + "/" + strings.TrimPrefix(path, "./") + `"`
	})

	html = hrefAttrPattern.ReplaceAllStringFunc(html, func(m string) string {
		path := m[len(`href="`) : len(m)-1]
		if path == "" || strings.HasPrefix(path, "/") || strings.HasPrefix(path, "http") || strings.HasPrefix(path, "#") {
			return m
		}
		return `href="` + webBase + "/" + strings.TrimPrefix(path, "./") + `"`
	})

	return html
}
