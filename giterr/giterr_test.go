// Copyright 2020 The gg Authors
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

package giterr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIs(t *testing.T) {
	base := New(InvalidPack, "decode pack: magic")
	wrapped := fmt.Errorf("clone example.com: %w", base)
	if !Is(wrapped, InvalidPack) {
		t.Error("Is(wrapped, InvalidPack) = false; want true")
	}
	if Is(wrapped, CorruptPack) {
		t.Error("Is(wrapped, CorruptPack) = true; want false")
	}
	if !errors.Is(wrapped, base) {
		t.Error("errors.Is(wrapped, base) = false; want true")
	}
}

func TestWrapPreservesKind(t *testing.T) {
	base := New(MissingBase, "resolve delta")
	outer := Wrap(0, "explode pack", base)
	if outer.Kind != MissingBase {
		t.Errorf("outer.Kind = %v; want %v", outer.Kind, MissingBase)
	}
}
