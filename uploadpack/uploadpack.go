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

// Package uploadpack implements the client side of the legacy (v0)
// smart-HTTP git-upload-pack protocol: ref discovery via
// /info/refs?service=git-upload-pack and pack retrieval via a want/done
// request to /git-upload-pack. Capability negotiation, multi_ack,
// side-band framing, and the v2 command/feature-list dialect are out of
// scope; the server response is expected to be a single pkt-line-framed
// "NAK\n" packet followed directly by raw (unframed) pack bytes.
package uploadpack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/pktline"
)

const (
	contentTypeHeader = "Content-Type"
	userAgentHeader   = "User-Agent"
)

// A Ref is one advertised reference.
type Ref struct {
	ID   githash.SHA1
	Name githash.Ref
}

// Client speaks the v0 git-upload-pack protocol to a single HTTP(S) remote.
type Client struct {
	HTTPClient *http.Client // defaults to http.DefaultClient
	Base       *url.URL
	UserAgent  string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) url(path string, params url.Values) *url.URL {
	u := new(url.URL)
	*u = *c.Base
	u.Path += path
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.UserAgent != "" {
		req.Header.Set(userAgentHeader, c.UserAgent)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, giterr.Wrap(giterr.Http, "git-upload-pack", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, giterr.New(giterr.Http, fmt.Sprintf("git-upload-pack: http %s", resp.Status))
	}
	return resp, nil
}

// ListRefs fetches the ref advertisement from the remote's
// /info/refs?service=git-upload-pack endpoint.
func (c *Client) ListRefs(ctx context.Context) ([]Ref, error) {
	resp, err := c.do(ctx, &http.Request{
		Method: http.MethodGet,
		URL:    c.url("/info/refs", url.Values{"service": {"git-upload-pack"}}),
		Header: make(http.Header),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(contentTypeHeader); ct != "application/x-git-upload-pack-advertisement" {
		return nil, giterr.New(giterr.Http, fmt.Sprintf("git-upload-pack: content-type is %q, not git upload pack", ct))
	}
	return parseRefAdvertisement(pktline.NewReader(resp.Body))
}

func parseRefAdvertisement(r *pktline.Reader) ([]Ref, error) {
	if !r.Next() {
		return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read refs: service header", r.Err())
	}
	line, err := r.Text()
	if err != nil {
		return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read refs: service header", err)
	}
	if !bytes.Equal(line, []byte("# service=git-upload-pack")) {
		return nil, giterr.New(giterr.Http, "git-upload-pack: read refs: unexpected service header")
	}
	if !r.Next() || r.Type() != pktline.Flush {
		return nil, giterr.New(giterr.Http, "git-upload-pack: read refs: expected flush after service header")
	}

	var refs []Ref
	first := true
	for r.Next() && r.Type() != pktline.Flush {
		line, err := r.Text()
		if err != nil {
			return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read refs", err)
		}
		if first {
			first = false
			if i := bytes.IndexByte(line, 0); i != -1 {
				// First ref line carries a NUL-separated capability list we
				// do not negotiate against; strip it.
				line = line[:i]
			}
		}
		ref, ok, err := parseRefLine(line)
		if err != nil {
			return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read refs", err)
		}
		if ok {
			refs = append(refs, ref)
		}
	}
	if err := r.Err(); err != nil {
		return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read refs", err)
	}
	return refs, nil
}

func parseRefLine(line []byte) (_ Ref, ok bool, _ error) {
	sp := bytes.IndexByte(line, ' ')
	if sp == -1 {
		return Ref{}, false, fmt.Errorf("ref line missing space: %q", line)
	}
	name := githash.Ref(line[sp+1:])
	if name == "capabilities^{}" {
		// No-refs advertisement; nothing to report.
		return Ref{}, false, nil
	}
	if !name.IsValid() {
		return Ref{}, false, fmt.Errorf("ref %q: invalid name", name)
	}
	id, err := githash.ParseSHA1(string(line[:sp]))
	if err != nil {
		return Ref{}, false, fmt.Errorf("ref %s: %w", name, err)
	}
	return Ref{ID: id, Name: name}, true, nil
}

// Fetch requests the objects reachable from want (and not already excluded
// by the server's policy) and returns the raw pack bytes that follow the
// server's NAK. The caller is responsible for closing the returned
// io.ReadCloser.
func (c *Client) Fetch(ctx context.Context, want githash.SHA1) (io.ReadCloser, error) {
	var body []byte
	body = pktline.AppendWant(body, want)
	body = pktline.AppendFlush(body)
	body = pktline.AppendDone(body)

	resp, err := c.do(ctx, &http.Request{
		Method: http.MethodPost,
		URL:    c.url("/git-upload-pack", nil),
		Header: http.Header{
			contentTypeHeader: {"application/x-git-upload-pack-request"},
		},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	})
	if err != nil {
		return nil, err
	}
	if ct := resp.Header.Get(contentTypeHeader); ct != "application/x-git-upload-pack-result" {
		resp.Body.Close()
		return nil, giterr.New(giterr.Http, fmt.Sprintf("git-upload-pack: content-type is %q, not git upload pack", ct))
	}
	// The NAK is itself one pkt-line-framed packet; the pack bytes that
	// follow it on resp.Body are not pkt-line framed. pktline.Reader reads
	// exactly the bytes the length prefix declares and nothing more, so
	// resp.Body is left positioned at the first byte of the pack stream.
	pr := pktline.NewReader(resp.Body)
	if !pr.Next() {
		resp.Body.Close()
		return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read NAK", pr.Err())
	}
	line, err := pr.Text()
	if err != nil {
		resp.Body.Close()
		return nil, giterr.Wrap(giterr.Http, "git-upload-pack: read NAK", err)
	}
	if string(line) != "NAK" {
		resp.Body.Close()
		return nil, giterr.New(giterr.Http, "git-upload-pack: expected NAK before pack data")
	}
	return resp.Body, nil
}
