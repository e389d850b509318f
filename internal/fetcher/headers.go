package fetcher

import "github.com/wwt-image-collection/hashgen/pkg/version"

// acceptXML prefers XML representations of manifest documents
const acceptXML = "application/xml, text/xml;q=0.9, */*;q=0.8"

// DefaultUserAgent identifies the tool and its version to remote servers
func DefaultUserAgent() string {
	return "hashgen/" + version.Short()
}

// RequestHeaders returns the headers sent with every manifest request
func RequestHeaders(userAgent string) map[string]string {
	if userAgent == "" {
		userAgent = DefaultUserAgent()
	}

	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          acceptXML,
		"Accept-Encoding": "gzip, deflate, br",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
}
