// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package document

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// Extension is the extension used only by Lottie documents.
	Extension = ".lot"
	// GenericExtension is the extension shared with other JSON.
	GenericExtension = ".json"
)

// maxPeek is the number of leading bytes inspected by IsLikelyMatch.
const maxPeek = 2048

// minTokens is the number of distinct signature tokens required
// for a match.
const minTokens = 3

// signature is the set of tokens found near the start of Lottie
// documents.
var signature = [][]byte{
	[]byte(`"v":`),
	[]byte(`"fr":`),
	[]byte(`"ip":`),
	[]byte(`"op":`),
	[]byte(`"w":`),
	[]byte(`"h":`),
	[]byte(`"layers"`),
}

// IsLikelyMatch returns whether the file at path is likely to be a Lottie
// document without parsing it. Files with the Lottie extension always match.
// Files with the generic JSON extension match if at least three distinct
// signature tokens appear in the first 2048 bytes. All other files and
// files that cannot be read do not match.
func IsLikelyMatch(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case Extension:
		return true
	case GenericExtension:
	default:
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	b, err := bufio.NewReaderSize(f, maxPeek).Peek(maxPeek)
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return hasSignature(b, len(b) == maxPeek)
}

// hasSignature returns whether b is valid UTF-8 holding at least minTokens
// distinct signature tokens. If truncated is true, a partial encoding at
// the end of b is ignored.
func hasSignature(b []byte, truncated bool) bool {
	if truncated {
		b = trimPartialRune(b)
	}
	if !utf8.Valid(b) {
		return false
	}
	var n int
	for _, tok := range signature {
		if bytes.Contains(b, tok) {
			n++
			if n >= minTokens {
				return true
			}
		}
	}
	return false
}

// trimPartialRune returns b with any incomplete UTF-8 encoding at its end
// removed.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i]
		}
		break
	}
	return b
}
