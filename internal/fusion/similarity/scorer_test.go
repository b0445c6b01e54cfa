/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// Score – identity, symmetry, and range
// ---------------------------------------------------------------------------

func TestScore_ReflexiveIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "john.doe@example.com", "Müller", "日本語"} {
		assert.Equal(t, 1.0, Score(s, s), "score(x,x) must be 1 for %q", s)
	}
}

func TestScore_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"smith", "smyth"},
		{"jonathan", "john"},
		{"", "abc"},
		{"kitten", "sitting"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]))
	}
}

func TestScore_Range(t *testing.T) {
	assert.Equal(t, 0.0, Score("abc", "xyz"))
	assert.Equal(t, 0.0, Score("", "abc"))

	score := Score("smith", "smyth")
	assert.Greater(t, score, 0.7)
	assert.Less(t, score, 1.0)
}

func TestScore_RuneBased(t *testing.T) {
	// One rune substituted out of three, regardless of byte width.
	assert.InDelta(t, 2.0/3.0, Score("日本語", "日本人"), 1e-9)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 100, Percent("same", "same"))
	assert.Equal(t, 0, Percent("abc", "xyz"))
	assert.Equal(t, 80, Percent("smith", "smyth"))
}

// ---------------------------------------------------------------------------
// Comparable – normalization for fuzzy comparison
// ---------------------------------------------------------------------------

func TestComparable(t *testing.T) {
	cases := map[string]string{
		"  John   DOE ":  "john doe",
		"Müller":         "muller",
		"O'Brien":        "obrien",
		"García-Lopez":   "garcialopez",
		"jane.doe@x.io":  "janedoexio",
		"":               "",
		"   ":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Comparable(in), "input %q", in)
	}
}

func TestComparable_EqualAfterNormalization(t *testing.T) {
	assert.Equal(t, 1.0, Score(Comparable("José Núñez"), Comparable("jose nunez")))
}
