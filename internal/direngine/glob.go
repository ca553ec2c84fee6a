/*
Copyright 2026 The TNFS Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package direngine

import "strings"

// matchGlob implements the classic DP glob match: '*' matches any run
// of characters (including none), '?' matches exactly one character,
// all other characters match literally and case-insensitively.
// path/filepath.Match is deliberately not used here: it treats '\\' as
// an escape character and errors on unterminated character classes,
// neither of which the TNFS OPENDIRX pattern grammar has — TNFS '*'
// and '?' are the only metacharacters, with no escaping or classes.
func matchGlob(pattern, name string) bool {
	p := strings.ToLower(pattern)
	s := strings.ToLower(name)

	// dp[i][j] = true if p[:i] matches s[:j].
	dp := make([][]bool, len(p)+1)
	for i := range dp {
		dp[i] = make([]bool, len(s)+1)
	}
	dp[0][0] = true
	for i := 1; i <= len(p); i++ {
		if p[i-1] == '*' {
			dp[i][0] = dp[i-1][0]
		}
	}
	for i := 1; i <= len(p); i++ {
		for j := 1; j <= len(s); j++ {
			switch p[i-1] {
			case '*':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '?':
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = dp[i-1][j-1] && p[i-1] == s[j-1]
			}
		}
	}
	return dp[len(p)][len(s)]
}
