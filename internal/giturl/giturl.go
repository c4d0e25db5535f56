// Copyright 2021 The gg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package giturl parses the remote locator clone accepts on its command
// line into a *url.URL, accepting the scp-like shorthand alongside plain
// http(s) URLs. Clone rejects anything that doesn't come back with an
// http or https scheme, so this package only needs to get the scheme
// right, not fully validate the rest.
package giturl

import (
	"errors"
	"net/url"
	"strings"
)

// Parse turns urlstr into a *url.URL. Alongside ordinary URLs
// ("https://host/path") it recognizes the scp-like remote shorthand
// ("host:path") documented under "GIT URLS" in git-fetch(1) and rewrites
// it to an explicit ssh:// URL before delegating to url.Parse.
func Parse(urlstr string) (*url.URL, error) {
	if urlstr == "" {
		return nil, errors.New("parse git url: empty string")
	}
	if i := strings.IndexAny(urlstr, ":/"); i != -1 {
		tail := urlstr[i:]
		looksLikeScheme := strings.HasPrefix(tail, "/") ||
			strings.HasPrefix(tail, "://") ||
			strings.HasPrefix(tail, "::")
		if !looksLikeScheme {
			urlstr = "ssh://" + urlstr[:i] + "/" + strings.TrimPrefix(tail[1:], "/")
		}
	}
	return url.Parse(urlstr)
}
