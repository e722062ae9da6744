// Utilities for parsing cURL commands copied from browser devtools.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlRequest represents a request extracted from a cURL command: the
// method, target URL, headers, and cookie string.
type CurlRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts the request.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts the request.
//
// Handles the format produced by browser devtools "Copy as cURL": single- or
// double-quoted -H headers, -b cookies, -X method overrides, and
// backslash-continued lines.
func ParseCurlCommand(curlCmd string) (*CurlRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	headerRegex := regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)

	for _, match := range matches {
		var headerLine string
		if match[1] != "" {
			headerLine = match[1]
		} else {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if strings.ToLower(key) != "cookie" {
				headers[key] = value
			}
		}
	}

	cookieRegex := regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	cookieMatches := cookieRegex.FindStringSubmatch(curlCmd)
	if len(cookieMatches) > 1 {
		if cookieMatches[1] != "" {
			cookie = cookieMatches[1]
		} else {
			cookie = cookieMatches[2]
		}
	}

	if cookie == "" {
		for _, match := range matches {
			var headerLine string
			if match[1] != "" {
				headerLine = match[1]
			} else {
				headerLine = match[2]
			}

			if strings.HasPrefix(strings.ToLower(headerLine), "cookie:") {
				parts := strings.SplitN(headerLine, ":", 2)
				if len(parts) == 2 {
					cookie = strings.TrimSpace(parts[1])
				}
				break
			}
		}
	}

	method := "GET"
	methodRegex := regexp.MustCompile(`-X\s+'?"?(\w+)'?"?`)
	if methodMatch := methodRegex.FindStringSubmatch(curlCmd); len(methodMatch) > 1 {
		method = strings.ToUpper(methodMatch[1])
	}

	var url string
	urlRegex := regexp.MustCompile(`curl\s+(?:-\S+\s+)*'(https?://[^']+)'|curl\s+(?:-\S+\s+)*"(https?://[^"]+)"|curl\s+(?:-\S+\s+)*(https?://\S+)`)
	if urlMatch := urlRegex.FindStringSubmatch(curlCmd); urlMatch != nil {
		for _, group := range urlMatch[1:] {
			if group != "" {
				url = group
				break
			}
		}
	}

	if len(headers) == 0 && cookie == "" && url == "" {
		return nil, fmt.Errorf("no request found in curl command")
	}

	return &CurlRequest{
		Method:  method,
		URL:     url,
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// ToHeadersRaw converts parsed headers to newline-separated "Key: Value"
// pairs, the format Bookhive's session import endpoint expects.
func (c *CurlRequest) ToHeadersRaw() string {
	var lines []string

	for key, value := range c.Headers {
		lines = append(lines, fmt.Sprintf("%s: %s", key, value))
	}

	if c.Cookie != "" {
		lines = append(lines, fmt.Sprintf("cookie: %s", c.Cookie))
	}

	return strings.Join(lines, "\n")
}
